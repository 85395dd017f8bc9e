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
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/xivh/djlib/clex"
	"github.com/xivh/djlib/utils"
)

// ScanCmd represents the scan command
var ScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Flag configurations predicted below the DFT ground state hull",
	Long: `
Audits a set of candidate ECI vectors against the DFT-established ground
state hull. Each candidate's predicted energies re-interpolate the hull
surface at the DFT hull vertices; configurations predicted below that
surface are flagged, and their appearance frequency across the candidate
set is reported.

djlib scan -d dataset.json -e eci_set.json`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		m := &ModelScan{}
		if m.DataFile, err = cmd.Flags().GetString("dataFile"); err != nil {
			panic(err)
		}
		if m.ECIFile, err = cmd.Flags().GetString("eciFile"); err != nil {
			panic(err)
		}
		m.NP, _ = cmd.Flags().GetInt("np")
		if len(m.DataFile) == 0 || len(m.ECIFile) == 0 {
			fmt.Printf("error: must supply a dataset file (-d) and an ECI set file (-e)\n")
			os.Exit(1)
		}
		RunScan(m)
	},
}

func init() {
	rootCmd.AddCommand(ScanCmd)
	ScanCmd.Flags().StringP("dataFile", "d", "", "JSON dataset with corr, comp, formation_energy, names")
	ScanCmd.Flags().StringP("eciFile", "e", "", "JSON file with an \"eci_set\" matrix, one candidate per row")
	ScanCmd.Flags().IntP("np", "n", 0, "worker count for the scan, 0 = all CPUs")
}

type ModelScan struct {
	DataFile string
	ECIFile  string
	NP       int
}

func RunScan(m *ModelScan) {
	ds, err := clex.ReadDataset(m.DataFile)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	eciSet, err := readECISet(m.ECIFile, ds.NumCorrelations())
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	gs, err := clex.NewGroundStateScanner(ds)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if m.NP > 0 {
		gs.NP = m.NP
	}
	fmt.Printf("Scanning %d candidates against a hull with %d vertices\n", len(eciSet), len(gs.HullVertices))
	proposed, err := gs.ProposedGroundStates(context.Background(), eciSet)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if len(proposed) == 0 {
		fmt.Printf("No configurations predicted below the DFT hull\n")
		return
	}
	counts := proposed.Counts()
	indices := make([]int, 0, len(counts))
	for ind := range counts {
		indices = append(indices, ind)
	}
	sort.Slice(indices, func(i, j int) bool {
		if counts[indices[i]] != counts[indices[j]] {
			return counts[indices[i]] > counts[indices[j]]
		}
		return indices[i] < indices[j]
	})
	fmt.Printf("%d below-hull flags over %d configurations:\n", len(proposed), len(counts))
	for _, ind := range indices {
		fmt.Printf("%6d  %-32s flagged %d / %d\n", ind, ds.Name(ind), counts[ind], len(eciSet))
	}
}

func readECISet(path string, k int) (eciSet []utils.Vector, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read ECI set: %w", err)
	}
	var doc struct {
		ECISet [][]float64 `json:"eci_set"`
	}
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse ECI set %s: %w", path, err)
	}
	for i, row := range doc.ECISet {
		if len(row) != k {
			return nil, fmt.Errorf("eci_set row %d has %d coefficients, dataset has %d correlations", i, len(row), k)
		}
		eciSet = append(eciSet, utils.NewVector(k, row))
	}
	return
}
