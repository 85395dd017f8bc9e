package clex

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Trace is the structured record of one Monte Carlo run. Iterations
// counts completed steps, which is below the configured count when the
// run was cancelled. ProposedGroundStates is a multiset: a configuration
// appears once per sampled step that flagged it.
type Trace struct {
	Iterations           int         `json:"iterations"`
	SampleFrequency      int         `json:"sample_frequency"`
	BurnIn               int         `json:"burn_in"`
	Seed                 uint64      `json:"seed"`
	SampledECI           [][]float64 `json:"sampled_eci"`
	Acceptance           []bool      `json:"acceptance"`
	AcceptanceProb       float64     `json:"acceptance_prob"`
	ProposedGroundStates []int       `json:"proposed_ground_states_indices"`
	RMS                  []float64   `json:"rms"`
	Names                []string    `json:"names,omitempty"`
	LassoECI             []float64   `json:"lasso_eci"`
}

func (tr *Trace) finalize() {
	if len(tr.Acceptance) == 0 {
		tr.AcceptanceProb = 0
		return
	}
	accepted := 0
	for _, a := range tr.Acceptance {
		if a {
			accepted++
		}
	}
	tr.AcceptanceProb = float64(accepted) / float64(len(tr.Acceptance))
}

// GroundStateCounts returns each flagged configuration with its
// appearance frequency across sampled steps.
func (tr *Trace) GroundStateCounts() (counts map[int]int) {
	counts = make(map[int]int)
	for _, ind := range tr.ProposedGroundStates {
		counts[ind]++
	}
	return
}

// Write persists the trace as a zstd-compressed JSON blob at path. The
// blob is opaque to callers; ReadTrace is its only consumer.
func (tr *Trace) Write(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create trace file: %w", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("unable to open zstd stream: %w", err)
	}
	if err = json.NewEncoder(enc).Encode(tr); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("unable to encode trace: %w", err)
	}
	if err = enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("unable to flush trace: %w", err)
	}
	return f.Close()
}

func ReadTrace(path string) (tr *Trace, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open trace file: %w", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("unable to open zstd stream: %w", err)
	}
	defer dec.Close()
	tr = &Trace{}
	if err = json.NewDecoder(dec).Decode(tr); err != nil {
		return nil, fmt.Errorf("unable to decode trace %s: %w", path, err)
	}
	return
}
