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
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/notargets/gospectral/InputParameters"
	"github.com/notargets/gospectral/model_problems/SphereHelmholtz"
	"github.com/notargets/gospectral/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const exampleFile = `
########################################
Title: "Test Case"
N: [40, 40]           # Modes along theta and phi
Domain: [0, 3.141592653589793]
Alpha: 2
Solution: Bubble      # Can be "Harmonic"
Wavenumber: 8
Formulation: ByParts  # Can be "Divergence"
Level: 0
Tolerances:
  L2Error: 1.e-6
########################################
`

// SphereCmd represents the sphere command
var SphereCmd = &cobra.Command{
	Use:   "sphere",
	Short: "Helmholtz problem on a spherical shell with a manufactured solution",
	Long: `
Solves -lap(u) + alpha u = g on a sphere with a Legendre basis in theta and a
Fourier basis in phi, reports the error against the manufactured solution and
writes the refined solution on the physical surface,

gospectral sphere -I input.yaml -o sphere.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ip, err := sphereInput(cmd)
		if err != nil {
			return err
		}
		ip.Print()
		return RunSphere(context.Background(), ip, logger)
	},
}

func init() {
	rootCmd.AddCommand(SphereCmd)
	SphereCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:"+exampleFile)
	SphereCmd.Flags().IntSliceP("n", "n", nil, "modes along theta and phi, e.g. -n 40,40")
	SphereCmd.Flags().Float64P("alpha", "a", 0, "Helmholtz constant")
	SphereCmd.Flags().String("formulation", "", "ByParts or Divergence")
	SphereCmd.Flags().IntP("level", "l", 0, "assembly level, 0, 1 or 2")
	SphereCmd.Flags().IntP("ranks", "p", 1, "number of in-process ranks")
	SphereCmd.Flags().StringP("output", "o", "", "YAML file for the solution")
	for _, name := range []string{"alpha", "formulation", "level", "ranks", "output"} {
		_ = viper.BindPFlag("sphere."+name, SphereCmd.Flags().Lookup(name))
	}
}

// sphereInput layers the input file, then config file, environment and
// flags over the defaults. The sizes come from the flag only.
func sphereInput(cmd *cobra.Command) (ip *InputParameters.Helmholtz, err error) {
	ip = InputParameters.NewHelmholtz()
	file, _ := cmd.Flags().GetString("inputConditionsFile")
	if len(file) != 0 {
		var data []byte
		if data, err = os.ReadFile(file); err != nil {
			return nil, err
		}
		if err = ip.Parse(data); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	if cmd.Flags().Changed("n") {
		n, _ := cmd.Flags().GetIntSlice("n")
		switch len(n) {
		case 1:
			ip.N = [2]int{n[0], n[0]}
		case 2:
			ip.N = [2]int{n[0], n[1]}
		default:
			return nil, fmt.Errorf("-n takes one or two sizes, have %v", n)
		}
	}
	if viper.IsSet("sphere.alpha") {
		ip.Alpha = viper.GetFloat64("sphere.alpha")
	}
	if viper.IsSet("sphere.formulation") {
		ip.Formulation = viper.GetString("sphere.formulation")
	}
	if viper.IsSet("sphere.level") {
		ip.Level = viper.GetInt("sphere.level")
	}
	if viper.IsSet("sphere.ranks") {
		ip.Ranks = viper.GetInt("sphere.ranks")
	}
	if viper.IsSet("sphere.output") {
		ip.Output = viper.GetString("sphere.output")
	}
	return ip, ip.Validate()
}

// RunSphere solves the problem on ip.Ranks in-process ranks. Rank 0 prints
// the result, writes the output file and checks the tolerances.
func RunSphere(ctx context.Context, ip *InputParameters.Helmholtz, logger *zap.Logger) error {
	id := uuid.New()
	logger.Info("starting run",
		zap.String("run_id", id.String()), zap.String("title", ip.Title), zap.Int("ranks", ip.Ranks))
	run := func(comm utils.Communicator) error {
		h, err := SphereHelmholtz.NewHelmholtz(comm, ip,
			SphereHelmholtz.WithLogger(logger), SphereHelmholtz.WithRunID(id))
		if err != nil {
			return err
		}
		r, err := h.Solve()
		if err != nil || comm.Rank() != 0 {
			return err
		}
		r.Print()
		if len(ip.Output) != 0 {
			if err = r.Write(ip.Output); err != nil {
				return err
			}
			logger.Info("wrote solution", zap.String("file", ip.Output))
		}
		return r.Check(ip.Tolerances)
	}
	if ip.Ranks == 1 {
		return run(utils.Self())
	}
	w, err := utils.NewWorld(ip.Ranks, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx, run)
}
