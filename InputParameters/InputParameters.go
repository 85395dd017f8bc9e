package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type MonteCarloParameters struct {
	Title           string  `yaml:"Title"`
	ECIWalkStepSize float64 `yaml:"ECIWalkStepSize"`
	Iterations      int     `yaml:"Iterations"`
	SampleFrequency int     `yaml:"SampleFrequency"`
	BurnIn          int     `yaml:"BurnIn"`
	Seed            uint64  `yaml:"Seed"`
	Chains          int     `yaml:"Chains"`
	OutputFilePath  string  `yaml:"OutputFilePath"`
}

func (ip *MonteCarloParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *MonteCarloParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= ECIWalkStepSize\n", ip.ECIWalkStepSize)
	fmt.Printf("[%d]\t\t\t= Iterations\n", ip.Iterations)
	fmt.Printf("[%d]\t\t\t= SampleFrequency\n", ip.SampleFrequency)
	fmt.Printf("[%d]\t\t\t= BurnIn\n", ip.BurnIn)
	fmt.Printf("[%d]\t\t\t= Seed\n", ip.Seed)
	fmt.Printf("[%d]\t\t\t= Chains\n", ip.Chains)
	if len(ip.OutputFilePath) != 0 {
		fmt.Printf("[%s]\t= OutputFilePath\n", ip.OutputFilePath)
	}
}
