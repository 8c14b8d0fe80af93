package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/painelsaude/painel/internal/domain/scoring"
)

// ErrInvalidFilter is returned for query parameters a dashboard cannot honor.
var ErrInvalidFilter = errors.New("invalid dashboard filter")

type FilterError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }

// AgeRange is one of the fixed age buckets used by the dashboards.
type AgeRange string

const (
	Age60To70 AgeRange = "60-70"
	Age71To80 AgeRange = "71-80"
	Age81Plus AgeRange = "81+"
)

func AgeRanges() []AgeRange {
	return []AgeRange{Age60To70, Age71To80, Age81Plus}
}

// ParseAgeRange accepts exactly one of the bucket names.
func ParseAgeRange(s string) (AgeRange, error) {
	for _, a := range AgeRanges() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", &FilterError{Field: "age_range", Value: s, Reason: "use 60-70, 71-80 or 81+"}
}

// Bounds returns the inclusive age limits. hi is 0 for the open bucket.
func (a AgeRange) Bounds() (lo, hi int) {
	switch a {
	case Age60To70:
		return 60, 70
	case Age71To80:
		return 71, 80
	case Age81Plus:
		return 81, 0
	}
	return 0, 0
}

func (a AgeRange) Contains(age int) bool {
	lo, hi := a.Bounds()
	if a == "" || age < lo {
		return false
	}
	return hi == 0 || age <= hi
}

// Filter restricts the evaluations an aggregation runs over. Zero values
// mean "no restriction".
type Filter struct {
	From           *time.Time
	To             *time.Time
	Region         string
	HealthUnitID   *uuid.UUID
	AgeRange       AgeRange
	Classification string
}

const dateLayout = "2006-01-02"

// ParseFilter builds a Filter from dashboard query parameters. Region must
// be one of regions when that list is non-empty; classification must be a
// label of the instrument.
func ParseFilter(q url.Values, inst scoring.Instrument, regions []string) (Filter, error) {
	var f Filter

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"period_from", &f.From}, {"period_to", &f.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return Filter{}, &FilterError{Field: p.name, Value: v, Reason: "expected YYYY-MM-DD"}
		}
		*p.dst = &t
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return Filter{}, &FilterError{Field: "period_from", Value: q.Get("period_from"), Reason: "after period_to"}
	}

	if v := strings.TrimSpace(q.Get("region")); v != "" {
		if len(regions) > 0 && !contains(regions, v) {
			return Filter{}, &FilterError{Field: "region", Value: v, Reason: "unknown region"}
		}
		f.Region = v
	}

	if v := q.Get("health_unit_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return Filter{}, &FilterError{Field: "health_unit_id", Value: v, Reason: "expected uuid"}
		}
		f.HealthUnitID = &id
	}

	if v := q.Get("age_range"); v != "" {
		a, err := ParseAgeRange(v)
		if err != nil {
			return Filter{}, err
		}
		f.AgeRange = a
	}

	if v := strings.TrimSpace(q.Get("classification")); v != "" {
		labels := Labels(inst)
		if !contains(labels, v) {
			return Filter{}, &FilterError{Field: "classification", Value: v, Reason: "use " + strings.Join(labels, ", ")}
		}
		f.Classification = v
	}

	return f, nil
}

// Labels returns the primary classification labels of an instrument in
// ascending severity.
func Labels(inst scoring.Instrument) []string {
	switch inst {
	case scoring.InstrumentIVCF:
		return scoring.IVCFScale().Labels()
	case scoring.InstrumentFACTF:
		l := scoring.FatigueScale().Labels()
		out := make([]string, len(l))
		for i := range l {
			out[i] = l[len(l)-1-i]
		}
		return out
	default:
		return scoring.SedentaryRiskLabels()
	}
}

// FiltersApplied echoes the active filters back to the client.
type FiltersApplied struct {
	Period         string     `json:"period,omitempty"`
	Region         string     `json:"region,omitempty"`
	HealthUnitID   *uuid.UUID `json:"health_unit_id,omitempty"`
	AgeRange       AgeRange   `json:"age_range,omitempty"`
	Classification string     `json:"classification,omitempty"`
	TotalPatients  int        `json:"total_patients"`
}

func (f Filter) Applied(total int) FiltersApplied {
	fa := FiltersApplied{
		Region:         f.Region,
		HealthUnitID:   f.HealthUnitID,
		AgeRange:       f.AgeRange,
		Classification: f.Classification,
		TotalPatients:  total,
	}
	switch {
	case f.From != nil && f.To != nil:
		fa.Period = f.From.Format(dateLayout) + " to " + f.To.Format(dateLayout)
	case f.From != nil:
		fa.Period = "from " + f.From.Format(dateLayout)
	case f.To != nil:
		fa.Period = "until " + f.To.Format(dateLayout)
	}
	return fa
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
