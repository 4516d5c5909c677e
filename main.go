package main

import "github.com/fvens-go/fvcore/cmd"

func main() {
	cmd.Execute()
}
