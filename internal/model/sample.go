package model

import "strconv"

// Sample is one fetched value. Message is only used as notification text and
// never takes part in comparison.
type Sample struct {
	Timestamp float64
	Message   string
}

// Indicator is the two-valued availability reading of a stock page.
type Indicator float64

const (
	OutOfStock Indicator = 0
	InStock    Indicator = 1
)

func (i Indicator) String() string {
	switch i {
	case OutOfStock:
		return "out_of_stock"
	case InStock:
		return "in_stock"
	}
	return strconv.FormatFloat(float64(i), 'g', -1, 64)
}

// Transition records one detector decision for a key. It is never persisted.
type Transition struct {
	Key      string
	Previous float64
	Current  float64
	// Baseline is set when no value existed before this observation.
	Baseline bool
	Notify   bool
}
