package schedule

import "sort"

// Slot is a bookable window as shown to clients: the buffer is not part of it.
type Slot struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

type SlotRequest struct {
	Ranges   []TimeRange
	Bookings []TimeRange

	// DurationMin is the visible service duration, BufferMin the hidden tail.
	DurationMin int
	BufferMin   int

	// NotBefore, when set, drops any step starting before it.
	NotBefore *Clock
}

// FreeIntervals carves each range around the busy intervals. A gap starts at
// the end of the preceding booking, whose buffer is already part of it.
func FreeIntervals(ranges, busy []TimeRange) []TimeRange {
	sorted := append([]TimeRange(nil), busy...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var free []TimeRange
	for _, r := range ranges {
		cursor := r.Start
		for _, b := range sorted {
			if b.End <= cursor || b.Start >= r.End {
				continue
			}
			if b.Start > cursor {
				free = append(free, TimeRange{Start: cursor, End: b.Start})
			}
			if b.End > cursor {
				cursor = b.End
			}
			if cursor >= r.End {
				break
			}
		}
		if cursor < r.End {
			free = append(free, TimeRange{Start: cursor, End: r.End})
		}
	}
	return free
}

// GenerateSlots packs slots back to back inside every free interval, stepping
// by duration+buffer, while the whole step still fits before the interval end.
func GenerateSlots(req SlotRequest) []Slot {
	step := req.DurationMin + req.BufferMin
	if req.DurationMin <= 0 || step <= 0 {
		return []Slot{}
	}

	slots := []Slot{}
	for _, f := range FreeIntervals(req.Ranges, req.Bookings) {
		for start := f.Start; start.Add(step) <= f.End; start = start.Add(step) {
			if req.NotBefore != nil && start < *req.NotBefore {
				continue
			}
			slots = append(slots, Slot{Start: start, End: start.Add(req.DurationMin)})
		}
	}
	return slots
}
