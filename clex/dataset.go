package clex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/xivh/djlib/utils"
)

// FormationEnergy is a tagged value: Calculated is false for
// configurations whose DFT energy has not been computed. The tag is
// resolved once at ingestion and never re-inferred downstream; a missing
// energy is never coerced to zero.
type FormationEnergy struct {
	Value      float64
	Calculated bool
}

// UnmarshalJSON accepts a number, null, or an empty object. The last two
// are the uncalculated markers written by different exporter versions.
func (fe *FormationEnergy) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		*fe = FormationEnergy{}
		return nil
	}
	var val float64
	if err := json.Unmarshal(trimmed, &val); err != nil {
		return fmt.Errorf("formation energy must be a number, null or {}: %w", err)
	}
	*fe = FormationEnergy{Value: val, Calculated: true}
	return nil
}

func (fe FormationEnergy) MarshalJSON() ([]byte, error) {
	if !fe.Calculated {
		return []byte("null"), nil
	}
	return json.Marshal(fe.Value)
}

// Dataset holds the row-aligned inputs for one analysis run: correlations
// (n x k), compositions (n x l), formation energies (length n) and
// optional configuration names. Alignment across the four is validated at
// construction and preserved for the dataset's lifetime; all consumers
// index rows through this single ordering.
type Dataset struct {
	Corr   utils.Matrix
	Comp   utils.Matrix
	Energy []FormationEnergy
	Names  []string
}

func NewDataset(corr, comp utils.Matrix, energy []FormationEnergy, names []string) (ds *Dataset, err error) {
	var (
		n, k  = corr.Dims()
		nc, l = comp.Dims()
	)
	if nc != n {
		return nil, fmt.Errorf("row misalignment: %d correlation rows, %d composition rows", n, nc)
	}
	if len(energy) != n {
		return nil, fmt.Errorf("row misalignment: %d correlation rows, %d formation energies", n, len(energy))
	}
	if names != nil && len(names) != n {
		return nil, fmt.Errorf("row misalignment: %d correlation rows, %d names", n, len(names))
	}
	if k < 1 || l < 1 {
		return nil, fmt.Errorf("dataset needs at least one correlation and one composition axis, have k = %d, l = %d", k, l)
	}
	ds = &Dataset{
		Corr:   corr,
		Comp:   comp,
		Energy: energy,
		Names:  names,
	}
	return
}

type datasetJSON struct {
	Corr  [][]float64       `json:"corr"`
	Comp  [][]float64       `json:"comp"`
	FE    []FormationEnergy `json:"formation_energy"`
	Names []string          `json:"names,omitempty"`
}

// ReadDataset loads a dataset from a JSON document with fields "corr",
// "comp", "formation_energy" and optional "names". The exporter that
// produces the document guarantees row alignment; NewDataset re-validates
// the shape anyway.
func ReadDataset(path string) (ds *Dataset, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read dataset: %w", err)
	}
	var doc datasetJSON
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to parse dataset %s: %w", path, err)
	}
	if len(doc.Corr) == 0 || len(doc.Comp) == 0 {
		return nil, fmt.Errorf("dataset %s has no corr or comp rows", path)
	}
	corr, err := matrixFromRows(doc.Corr)
	if err != nil {
		return nil, fmt.Errorf("corr: %w", err)
	}
	comp, err := matrixFromRows(doc.Comp)
	if err != nil {
		return nil, fmt.Errorf("comp: %w", err)
	}
	return NewDataset(corr, comp, doc.FE, doc.Names)
}

func matrixFromRows(rows [][]float64) (R utils.Matrix, err error) {
	var (
		nr = len(rows)
		nc = len(rows[0])
	)
	R = utils.NewMatrix(nr, nc)
	for i, row := range rows {
		if len(row) != nc {
			return R, fmt.Errorf("ragged row %d: %d values, want %d", i, len(row), nc)
		}
		R.SetRow(i, row)
	}
	return
}

func (ds *Dataset) NumConfigs() int      { n, _ := ds.Corr.Dims(); return n }
func (ds *Dataset) NumCorrelations() int { _, k := ds.Corr.Dims(); return k }
func (ds *Dataset) NumCompAxes() int     { _, l := ds.Comp.Dims(); return l }

// CalculatedIndex returns the indices of rows with a calculated formation
// energy, in dataset order.
func (ds *Dataset) CalculatedIndex() (I utils.Index) {
	for i, fe := range ds.Energy {
		if fe.Calculated {
			I = append(I, i)
		}
	}
	return
}

// Calculated returns the correlation and composition rows and the energy
// vector for calculated configurations only.
func (ds *Dataset) Calculated() (corr, comp utils.Matrix, energy utils.Vector) {
	var (
		I    = ds.CalculatedIndex()
		data = make([]float64, len(I))
	)
	corr = ds.Corr.SliceRows(I)
	comp = ds.Comp.SliceRows(I)
	for i, ind := range I {
		data[i] = ds.Energy[ind].Value
	}
	energy = utils.NewVector(len(I), data)
	return
}

// EnergyVector returns all formation energies as a vector, failing with a
// MissingDataError on the first uncalculated row.
func (ds *Dataset) EnergyVector() (energy utils.Vector, err error) {
	var (
		n    = ds.NumConfigs()
		data = make([]float64, n)
	)
	for i, fe := range ds.Energy {
		if !fe.Calculated {
			name := ""
			if ds.Names != nil {
				name = ds.Names[i]
			}
			return energy, &MissingDataError{Index: i, Name: name}
		}
		data[i] = fe.Value
	}
	energy = utils.NewVector(n, data)
	return
}

// Name returns the configuration name for row i, or its index rendered as
// a string when names were not supplied.
func (ds *Dataset) Name(i int) string {
	if ds.Names != nil {
		return ds.Names[i]
	}
	return fmt.Sprintf("config_%d", i)
}
