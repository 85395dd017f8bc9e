package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	data := []byte(`
Title: "ECI walk"
ECIWalkStepSize: 0.005
Iterations: 100000
SampleFrequency: 10
BurnIn: 1000
Seed: 19
Chains: 4
OutputFilePath: "mc_results.zst"
`)
	ip := &MonteCarloParameters{}
	assert.NoError(t, ip.Parse(data))
	assert.Equal(t, "ECI walk", ip.Title)
	assert.Equal(t, 0.005, ip.ECIWalkStepSize)
	assert.Equal(t, 100000, ip.Iterations)
	assert.Equal(t, 10, ip.SampleFrequency)
	assert.Equal(t, 1000, ip.BurnIn)
	assert.Equal(t, uint64(19), ip.Seed)
	assert.Equal(t, 4, ip.Chains)
	assert.Equal(t, "mc_results.zst", ip.OutputFilePath)

	// Unset fields keep their zero values
	ip = &MonteCarloParameters{}
	assert.NoError(t, ip.Parse([]byte("Iterations: 50\n")))
	assert.Equal(t, 50, ip.Iterations)
	assert.Equal(t, 0, ip.Chains)
}
