package scoring

import (
	"errors"
	"fmt"
	"math"
)

// DomainScoreSet maps a domain key to its submitted score.
type DomainScoreSet map[string]float64

// Clone returns an independent copy of the set.
func (s DomainScoreSet) Clone() DomainScoreSet {
	out := make(DomainScoreSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ErrDomainScoreOutOfRange is the sentinel wrapped by every DomainScoreError.
var ErrDomainScoreOutOfRange = errors.New("domain score out of range")

// DomainScoreError describes the first offending field of a score set.
type DomainScoreError struct {
	Field  string
	Value  float64
	Min    float64
	Max    float64
	Reason string
}

func (e *DomainScoreError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (value %g)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

func (e *DomainScoreError) Unwrap() error { return ErrDomainScoreOutOfRange }

// Validate checks every domain present in scores against the descriptor's
// bounds. Keys the descriptor does not know are ignored; absent keys are the
// caller's concern (see Descriptor.Missing).
func Validate(scores DomainScoreSet, d Descriptor) error {
	for _, dom := range d.Domains {
		v, ok := scores[dom.Key]
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DomainScoreError{Field: dom.Key, Value: v, Min: dom.Min, Max: dom.Max, Reason: "not a finite number"}
		}
		if v < dom.Min || v > dom.Max {
			return &DomainScoreError{Field: dom.Key, Value: v, Min: dom.Min, Max: dom.Max}
		}
		if dom.Integer && v != math.Trunc(v) {
			return &DomainScoreError{Field: dom.Key, Value: v, Min: dom.Min, Max: dom.Max, Reason: "must be a whole number"}
		}
	}
	return nil
}
