package schedule

import (
	"sort"
	"strings"

	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
)

// TimeRange is a half-open interval [Start, End) within one day.
type TimeRange struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func (r TimeRange) Valid() bool {
	return r.Start >= 0 && r.End <= EndOfDay && r.End > r.Start
}

func (r TimeRange) Minutes() int {
	return int(r.End - r.Start)
}

func (r TimeRange) Contains(o TimeRange) bool {
	return r.Start <= o.Start && o.End <= r.End
}

// Overlaps is the booking predicate: s1 < e2 && s2 < e1.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Touches also reports ranges that only share a boundary.
func (r TimeRange) Touches(o TimeRange) bool {
	return r.Start <= o.End && o.Start <= r.End
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

func SortRanges(ranges []TimeRange) {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
}

func FormatRanges(ranges []TimeRange) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ", ")
}

// Source tells where a weekday's effective ranges came from.
type Source string

const (
	SourceProfessional Source = "professional"
	SourceCompany      Source = "company"
	SourceNone         Source = "none"
)

// Resolve picks the effective ranges for a weekday. Professional rows, when
// present, replace the company's hours entirely.
func Resolve(professional, company []TimeRange) ([]TimeRange, Source) {
	switch {
	case len(professional) > 0:
		out := append([]TimeRange(nil), professional...)
		SortRanges(out)
		return out, SourceProfessional
	case len(company) > 0:
		out := append([]TimeRange(nil), company...)
		SortRanges(out)
		return out, SourceCompany
	default:
		return nil, SourceNone
	}
}

// FitsAny reports whether w lies entirely inside one of ranges.
func FitsAny(w TimeRange, ranges []TimeRange) bool {
	for _, r := range ranges {
		if r.Contains(w) {
			return true
		}
	}
	return false
}

// ValidateAvailability checks a professional range against the company's
// hours for that weekday and the professional's other active ranges.
func ValidateAvailability(candidate TimeRange, working, others []TimeRange) error {
	if !candidate.Valid() {
		return httperr.Validation("invalid_range", "O horário final deve ser posterior ao inicial.")
	}

	if len(working) == 0 {
		return httperr.Validation("outside_working_hours", "A empresa não atende neste dia da semana.")
	}
	if !FitsAny(candidate, working) {
		sorted := append([]TimeRange(nil), working...)
		SortRanges(sorted)
		return httperr.Validation(
			"outside_working_hours",
			"O intervalo %s deve estar dentro do expediente da empresa: %s.",
			candidate, FormatRanges(sorted),
		)
	}

	for _, o := range others {
		if candidate.Touches(o) {
			return httperr.Validation(
				"availability_overlap",
				"O intervalo %s sobrepõe a disponibilidade existente %s.",
				candidate, o,
			)
		}
	}
	return nil
}

// ValidateWorkingDay checks that a company's ranges for one weekday are
// well formed and pairwise disjoint.
func ValidateWorkingDay(ranges []TimeRange) error {
	sorted := append([]TimeRange(nil), ranges...)
	SortRanges(sorted)
	for i, r := range sorted {
		if !r.Valid() {
			return httperr.Validation("invalid_range", "Intervalo inválido: %s.", r)
		}
		if i > 0 && sorted[i-1].Overlaps(r) {
			return httperr.Validation("working_hours_overlap", "Os intervalos %s e %s se sobrepõem.", sorted[i-1], r)
		}
	}
	return nil
}
