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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xivh/djlib/clex"
)

// FitCmd represents the fit command
var FitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit ECI to formation energies with cross-validated LASSO regression",
	Long: `
Fits effective cluster interactions by L1-regularized least squares with
no intercept, selecting the penalty by k-fold cross validation. Only
configurations with a calculated formation energy participate.

djlib fit -d dataset.json`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		m := &ModelFit{}
		if m.DataFile, err = cmd.Flags().GetString("dataFile"); err != nil {
			panic(err)
		}
		m.Folds, _ = cmd.Flags().GetInt("folds")
		m.Seed, _ = cmd.Flags().GetUint64("seed")
		m.OutputFile, _ = cmd.Flags().GetString("output")
		if len(m.DataFile) == 0 {
			fmt.Printf("error: must supply a dataset file (-d, --dataFile)\n")
			os.Exit(1)
		}
		RunFit(m)
	},
}

func init() {
	rootCmd.AddCommand(FitCmd)
	FitCmd.Flags().StringP("dataFile", "d", "", "JSON dataset with corr, comp, formation_energy, names")
	FitCmd.Flags().IntP("folds", "f", 5, "number of cross validation folds")
	FitCmd.Flags().Uint64P("seed", "s", 0, "random seed for the cross validation shuffle split")
	FitCmd.Flags().StringP("output", "o", "", "optional path for the fitted ECI as JSON")
}

type ModelFit struct {
	DataFile   string
	OutputFile string
	Folds      int
	Seed       uint64
}

func RunFit(m *ModelFit) {
	ds, err := clex.ReadDataset(m.DataFile)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	corr, _, energy := ds.Calculated()
	n, k := corr.Dims()
	fmt.Printf("Fitting %d ECI to %d calculated configurations (of %d total)\n", k, n, ds.NumConfigs())

	lasso := clex.NewLassoCV()
	lasso.Folds = m.Folds
	lasso.Seed = m.Seed
	eci, err := lasso.Fit(corr, energy)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	rms := corr.MulVec(eci).RMS(energy)
	fmt.Printf("Training RMS = %10.8f\n", rms)
	for j := 0; j < k; j++ {
		fmt.Printf("eci[%4d] = %12.8f\n", j, eci.AtVec(j))
	}
	if len(m.OutputFile) != 0 {
		out := map[string][]float64{"eci": eci.RawVector().Data}
		data, err := json.Marshal(out)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		if err = os.WriteFile(m.OutputFile, data, 0644); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Printf("Wrote ECI to %s\n", m.OutputFile)
	}
}
