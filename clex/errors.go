package clex

import "fmt"

// InsufficientDataError indicates a regression with fewer usable rows than
// fitted coefficients; the fit would be silently underdetermined.
type InsufficientDataError struct {
	Rows, Coefficients int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d calculated configurations for %d coefficients", e.Rows, e.Coefficients)
}

// NumericalInstabilityError aborts an operation that produced NaN or Inf
// in predictions, coefficients or acceptance ratios. Nothing downstream
// may consume such values.
type NumericalInstabilityError struct {
	Step     int // Monte Carlo step, -1 outside the sampler
	Quantity string
}

func (e *NumericalInstabilityError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("numerical instability in %s at step %d", e.Quantity, e.Step)
	}
	return fmt.Sprintf("numerical instability in %s", e.Quantity)
}

// MissingDataError indicates a row carried the missing-energy sentinel
// where a calculated value was required.
type MissingDataError struct {
	Index int
	Name  string
}

func (e *MissingDataError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("configuration %d (%s) has no calculated formation energy", e.Index, e.Name)
	}
	return fmt.Sprintf("configuration %d has no calculated formation energy", e.Index)
}
