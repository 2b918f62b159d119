package coredump

import "sort"

// MemoryRange is a half-open byte interval [Start, End) in the target
// process's address space.
type MemoryRange struct {
	Start uint64
	End   uint64
}

func (r MemoryRange) Len() uint64 { return r.End - r.Start }

// overlapsOrTouches reports whether r and other share any byte, including
// the case where they merely touch at an endpoint (touching ranges are fused by
// MergeRanges to keep the output minimal).
func (r MemoryRange) overlapsOrTouches(other MemoryRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

func (r MemoryRange) contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Intersect returns the overlap between r and other, and whether one exists.
func (r MemoryRange) Intersect(other MemoryRange) (MemoryRange, bool) {
	start := r.Start
	if other.Start > start {
		start = other.Start
	}
	end := r.End
	if other.End < end {
		end = other.End
	}
	if start >= end {
		return MemoryRange{}, false
	}
	return MemoryRange{Start: start, End: end}, true
}

// MergeRanges sorts ranges by start address and fuses any that overlap or
// touch, producing the minimal disjoint cover spec.md §3 calls for.
func MergeRanges(ranges []MemoryRange) []MemoryRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([]MemoryRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []MemoryRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if last.overlapsOrTouches(r) {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// FindContaining returns the range in ranges that contains addr, if any.
func FindContaining(ranges []MemoryRange, addr uint64) (MemoryRange, bool) {
	for _, r := range ranges {
		if r.contains(addr) {
			return r, true
		}
	}
	return MemoryRange{}, false
}
