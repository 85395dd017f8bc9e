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
	"os/signal"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/xivh/djlib/InputParameters"
	"github.com/xivh/djlib/clex"
)

// MonteCarloCmd represents the montecarlo command
var MonteCarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Sample ECI space with Metropolis-Hastings Monte Carlo",
	Long: `
Walks ECI space with fixed-length random proposals, seeded by the LASSO
regression fit. Sampled ECI, acceptance statistics, per-step RMS and
below-hull flags accumulate into a trace, optionally persisted as a
compressed blob.

djlib montecarlo -d dataset.json -I mc.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		m := &ModelMC{}
		if m.DataFile, err = cmd.Flags().GetString("dataFile"); err != nil {
			panic(err)
		}
		m.InputFile, _ = cmd.Flags().GetString("inputFile")
		m.Profile, _ = cmd.Flags().GetBool("profile")
		ip := processMCInput(cmd, m)
		RunMonteCarlo(m, ip)
	},
}

func init() {
	rootCmd.AddCommand(MonteCarloCmd)
	MonteCarloCmd.Flags().StringP("dataFile", "d", "", "JSON dataset with corr, comp, formation_energy, names")
	MonteCarloCmd.Flags().StringP("inputFile", "I", "", "YAML file for run parameters like:\n\t- ECIWalkStepSize\n\t- Iterations\n\t- BurnIn")
	MonteCarloCmd.Flags().Float64P("step", "w", 0.005, "Euclidean norm of every ECI proposal step")
	MonteCarloCmd.Flags().IntP("iterations", "i", 100000, "number of Monte Carlo steps, including burn in")
	MonteCarloCmd.Flags().IntP("sampleFrequency", "f", 10, "steps between recorded samples")
	MonteCarloCmd.Flags().IntP("burnIn", "b", 1000, "steps discarded before sampling starts")
	MonteCarloCmd.Flags().Uint64P("seed", "s", 0, "random seed; a fixed seed reproduces the trace exactly")
	MonteCarloCmd.Flags().IntP("chains", "c", 1, "independent chains run in parallel with derived seeds")
	MonteCarloCmd.Flags().StringP("output", "o", "", "optional path for the trace blob (chain index appended when chains > 1)")
	MonteCarloCmd.Flags().Bool("profile", false, "write a CPU profile for the run")
}

type ModelMC struct {
	DataFile  string
	InputFile string
	Profile   bool
}

// processMCInput loads YAML parameters when provided; flags set on the
// command line override the file
func processMCInput(cmd *cobra.Command, m *ModelMC) (ip *InputParameters.MonteCarloParameters) {
	if len(m.DataFile) == 0 {
		fmt.Printf("error: must supply a dataset file (-d, --dataFile)\n")
		exampleFile := `
########################################
Title: "ECI walk"
ECIWalkStepSize: 0.005
Iterations: 100000
SampleFrequency: 10
BurnIn: 1000
Seed: 19
Chains: 1
OutputFilePath: "mc_results.zst"
########################################
`
		fmt.Printf("Example parameters file (-I):%s\n", exampleFile)
		os.Exit(1)
	}
	ip = &InputParameters.MonteCarloParameters{}
	if len(m.InputFile) != 0 {
		data, err := os.ReadFile(m.InputFile)
		if err != nil {
			panic(err)
		}
		if err = ip.Parse(data); err != nil {
			panic(err)
		}
	}
	if ip.Chains == 0 {
		ip.Chains = 1
	}
	if len(m.InputFile) == 0 || cmd.Flags().Changed("step") {
		ip.ECIWalkStepSize, _ = cmd.Flags().GetFloat64("step")
	}
	if len(m.InputFile) == 0 || cmd.Flags().Changed("iterations") {
		ip.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if len(m.InputFile) == 0 || cmd.Flags().Changed("sampleFrequency") {
		ip.SampleFrequency, _ = cmd.Flags().GetInt("sampleFrequency")
	}
	if len(m.InputFile) == 0 || cmd.Flags().Changed("burnIn") {
		ip.BurnIn, _ = cmd.Flags().GetInt("burnIn")
	}
	if cmd.Flags().Changed("seed") {
		ip.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	if cmd.Flags().Changed("chains") {
		ip.Chains, _ = cmd.Flags().GetInt("chains")
	}
	if cmd.Flags().Changed("output") {
		ip.OutputFilePath, _ = cmd.Flags().GetString("output")
	}
	ip.Print()
	return
}

func RunMonteCarlo(m *ModelMC, ip *InputParameters.MonteCarloParameters) {
	if m.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	ds, err := clex.ReadDataset(m.DataFile)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	params := clex.MonteCarloParameters{
		ECIWalkStepSize: ip.ECIWalkStepSize,
		Iterations:      ip.Iterations,
		SampleFrequency: ip.SampleFrequency,
		BurnIn:          ip.BurnIn,
		Seed:            ip.Seed,
	}
	if err = params.Validate(); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}

	// Ctrl-C ends the walk after the current step; partial results are
	// still reported and written
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	traces, err := clex.RunChains(ctx, ds, params, ip.Chains)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	for c, tr := range traces {
		fmt.Printf("Chain %d: %d steps, acceptance_prob = %6.4f, %d samples, %d below-hull flags\n",
			c, tr.Iterations, tr.AcceptanceProb, len(tr.SampledECI), len(tr.ProposedGroundStates))
		if len(tr.RMS) != 0 {
			fmt.Printf("Chain %d: final RMS = %10.8f\n", c, tr.RMS[len(tr.RMS)-1])
		}
		if len(ip.OutputFilePath) != 0 {
			path := ip.OutputFilePath
			if len(traces) > 1 {
				path = fmt.Sprintf("%s.%d", path, c)
			}
			if err = tr.Write(path); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
			fmt.Printf("Saving results to %s\n", path)
		}
	}
}
