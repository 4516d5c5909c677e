/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fvens-go/fvcore/linalg"
	"github.com/fvens-go/fvcore/pseudotime"
	"github.com/fvens-go/fvcore/spatial/linearfvm"
)

var explicitUnsteadyCmd = &cobra.Command{
	Use:   "explicit-unsteady",
	Short: "Advance a scalar advection demo problem to a terminal time with TVD-RK integration",
	Run:   runExplicitUnsteady,
}

func init() {
	rootCmd.AddCommand(explicitUnsteadyCmd)
	explicitUnsteadyCmd.Flags().Int("order", 2, "TVD-RK order: 1, 2 or 3")
	explicitUnsteadyCmd.Flags().Float64("cfl", 0.5, "CFL number")
	explicitUnsteadyCmd.Flags().Float64("finaltime", 1.0, "terminal physical time")
	explicitUnsteadyCmd.Flags().Int("ncells", 100, "number of cells in the demo 1-D mesh")
	explicitUnsteadyCmd.Flags().Float64("length", 1.0, "length of the demo 1-D mesh")
	explicitUnsteadyCmd.Flags().Float64("wave", 1.0, "advection speed of the demo problem")
}

func runExplicitUnsteady(cmd *cobra.Command, args []string) {
	if p := startProfile(cmd); p != nil {
		defer p.Stop()
	}

	order, _ := cmd.Flags().GetInt("order")
	cfl, _ := cmd.Flags().GetFloat64("cfl")
	finaltime, _ := cmd.Flags().GetFloat64("finaltime")
	ncells, _ := cmd.Flags().GetInt("ncells")
	length, _ := cmd.Flags().GetFloat64("length")
	wave, _ := cmd.Flags().GetFloat64("wave")

	mesh := linearfvm.NewMesh(length, ncells)
	sp := linearfvm.NewSpatial(mesh, wave, nil, cfl)

	u := linalg.NewBlockVector(ncells, 1)
	for i := range u.Data {
		u.Data[i] = 1
	}

	driver, err := pseudotime.NewExplicitUnsteady(sp, 1, order, cfl, runtime.GOMAXPROCS(0))
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	status := driver.Solve(u, finaltime)
	fmt.Printf("finished: %s after %d steps\n", status.Code, status.Iterations)
}
