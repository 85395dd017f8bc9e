package clex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xivh/djlib/utils"
)

func TestFormationEnergyJSON(t *testing.T) {
	// Number, null and empty object are the three exporter encodings
	{
		var fe FormationEnergy
		assert.NoError(t, json.Unmarshal([]byte("-0.125"), &fe))
		assert.Equal(t, FormationEnergy{Value: -0.125, Calculated: true}, fe)
	}
	{
		var fe FormationEnergy
		assert.NoError(t, json.Unmarshal([]byte("null"), &fe))
		assert.False(t, fe.Calculated)
	}
	{
		var fe FormationEnergy
		assert.NoError(t, json.Unmarshal([]byte("{}"), &fe))
		assert.False(t, fe.Calculated)
	}
	// Anything else is rejected, never coerced to zero
	{
		var fe FormationEnergy
		assert.Error(t, json.Unmarshal([]byte(`"0.5"`), &fe))
	}
	// Marshal writes null for uncalculated rows
	{
		out, err := json.Marshal(FormationEnergy{})
		assert.NoError(t, err)
		assert.Equal(t, "null", string(out))
		out, err = json.Marshal(FormationEnergy{Value: 1.5, Calculated: true})
		assert.NoError(t, err)
		assert.Equal(t, "1.5", string(out))
	}
}

func TestNewDataset(t *testing.T) {
	var (
		corr = utils.NewMatrix(2, 2, []float64{
			1, 0,
			0, 1,
		})
		comp   = utils.NewMatrix(2, 1, []float64{0, 1})
		energy = []FormationEnergy{
			{Value: 0, Calculated: true},
			{Value: -0.1, Calculated: true},
		}
	)
	// Aligned inputs
	{
		ds, err := NewDataset(corr, comp, energy, []string{"a", "b"})
		assert.NoError(t, err)
		assert.Equal(t, 2, ds.NumConfigs())
		assert.Equal(t, 2, ds.NumCorrelations())
		assert.Equal(t, 1, ds.NumCompAxes())
	}
	// Row misalignment in each input
	{
		_, err := NewDataset(corr, utils.NewMatrix(3, 1, []float64{0, 0.5, 1}), energy, nil)
		assert.Error(t, err)
		_, err = NewDataset(corr, comp, energy[:1], nil)
		assert.Error(t, err)
		_, err = NewDataset(corr, comp, energy, []string{"a"})
		assert.Error(t, err)
	}
}

func TestDatasetCalculated(t *testing.T) {
	var (
		corr = utils.NewMatrix(3, 2, []float64{
			1, 0,
			0, 1,
			1, 1,
		})
		comp   = utils.NewMatrix(3, 1, []float64{0, 0.5, 1})
		energy = []FormationEnergy{
			{Value: 0, Calculated: true},
			{},
			{Value: -0.05, Calculated: true},
		}
	)
	ds, err := NewDataset(corr, comp, energy, nil)
	assert.NoError(t, err)

	assert.Equal(t, utils.Index{0, 2}, ds.CalculatedIndex())

	corrCalc, compCalc, energyCalc := ds.Calculated()
	nr, _ := corrCalc.Dims()
	assert.Equal(t, 2, nr)
	assert.Equal(t, []float64{0, 1}, compCalc.RawMatrix().Data)
	assert.Equal(t, []float64{0, -0.05}, energyCalc.RawVector().Data)

	// The full energy vector fails on the uncalculated row
	_, err = ds.EnergyVector()
	var me *MissingDataError
	assert.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Index)

	// Name falls back to the row index without names
	assert.Equal(t, "config_1", ds.Name(1))
}

func TestReadDataset(t *testing.T) {
	doc := `{
		"corr": [[1, 0], [0, 1], [1, 1]],
		"comp": [[0], [0.5], [1]],
		"formation_energy": [0, null, -0.05],
		"names": ["A", "AB", "B"]
	}`
	path := filepath.Join(t.TempDir(), "dataset.json")
	assert.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	ds, err := ReadDataset(path)
	assert.NoError(t, err)
	assert.Equal(t, 3, ds.NumConfigs())
	assert.Equal(t, utils.Index{0, 2}, ds.CalculatedIndex())
	assert.Equal(t, "AB", ds.Name(1))

	// Ragged corr rows fail
	bad := filepath.Join(t.TempDir(), "bad.json")
	assert.NoError(t, os.WriteFile(bad, []byte(`{"corr": [[1, 0], [1]], "comp": [[0], [1]], "formation_energy": [0, 0]}`), 0644))
	_, err = ReadDataset(bad)
	assert.Error(t, err)

	_, err = ReadDataset(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
