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
	"io/ioutil"
	"os"
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/fvens-go/fvcore/config"
	"github.com/fvens-go/fvcore/linalg"
	"github.com/fvens-go/fvcore/pseudotime"
	"github.com/fvens-go/fvcore/spatial/linearfvm"
)

var explicitSteadyCmd = &cobra.Command{
	Use:   "explicit-steady",
	Short: "Relax a scalar advection demo problem to steady state with forward-Euler pseudo-time stepping",
	Run:   runExplicitSteady,
}

func init() {
	rootCmd.AddCommand(explicitSteadyCmd)
	explicitSteadyCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML SolverConfig file")
	explicitSteadyCmd.Flags().Int("ncells", 100, "number of cells in the demo 1-D mesh")
	explicitSteadyCmd.Flags().Float64("length", 1.0, "length of the demo 1-D mesh")
	explicitSteadyCmd.Flags().Float64("wave", 1.0, "advection speed of the demo problem")
}

func loadSolverConfig(cmd *cobra.Command) (*config.SolverConfig, error) {
	path, _ := cmd.Flags().GetString("inputConditionsFile")
	if path == "" {
		return nil, fmt.Errorf("must supply a SolverConfig file (-I, --inputConditionsFile)")
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &config.SolverConfig{}
	if err := sc.Parse(data); err != nil {
		return nil, err
	}
	return sc, nil
}

func startProfile(cmd *cobra.Command) interface{ Stop() } {
	kind, _ := cmd.Flags().GetString("profile")
	switch kind {
	case "cpu":
		return profile.Start(profile.CPUProfile)
	case "mem":
		return profile.Start(profile.MemProfile)
	default:
		return nil
	}
}

func runExplicitSteady(cmd *cobra.Command, args []string) {
	sc, err := loadSolverConfig(cmd)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	sc.Print()

	if p := startProfile(cmd); p != nil {
		defer p.Stop()
	}

	ncells, _ := cmd.Flags().GetInt("ncells")
	length, _ := cmd.Flags().GetFloat64("length")
	wave, _ := cmd.Flags().GetFloat64("wave")

	mesh := linearfvm.NewMesh(length, ncells)
	sp := linearfvm.NewSpatial(mesh, wave, nil, sc.CFLInit)

	u := linalg.NewBlockVector(ncells, 1)
	for i := range u.Data {
		u.Data[i] = 1
	}

	driver := pseudotime.NewExplicitSteady(sp, 1, sc.CFLInit, sc.Tol, sc.MaxIter, sc.LogNRes, sc.LogFile, runtime.GOMAXPROCS(0))
	status := driver.Solve(u)
	fmt.Printf("finished: %s after %d steps, residual ratio %g\n", status.Code, status.Iterations, status.Ratio())
}
