package coredump

import (
	"reflect"
	"testing"
)

func TestMergeRangesFusesOverlappingAndTouchingRanges(t *testing.T) {
	got := MergeRanges([]MemoryRange{
		{Start: 100, End: 200},
		{Start: 200, End: 250}, // touches the first
		{Start: 10, End: 50},
		{Start: 40, End: 60}, // overlaps the third
	})
	want := []MemoryRange{
		{Start: 10, End: 60},
		{Start: 100, End: 250},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMergeRangesOfEmptyInputIsNil(t *testing.T) {
	if got := MergeRanges(nil); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestIntersectReturnsOverlapOnly(t *testing.T) {
	r := MemoryRange{Start: 0, End: 100}
	other := MemoryRange{Start: 50, End: 150}
	got, ok := r.Intersect(other)
	if !ok || got != (MemoryRange{Start: 50, End: 100}) {
		t.Errorf("got (%+v, %v)", got, ok)
	}
}

func TestIntersectOfDisjointRangesReportsNoOverlap(t *testing.T) {
	r := MemoryRange{Start: 0, End: 10}
	other := MemoryRange{Start: 20, End: 30}
	if _, ok := r.Intersect(other); ok {
		t.Error("expected no overlap")
	}
}

func TestFindContainingPicksTheEnclosingRange(t *testing.T) {
	ranges := []MemoryRange{{Start: 0, End: 10}, {Start: 100, End: 200}}
	got, ok := FindContaining(ranges, 150)
	if !ok || got != ranges[1] {
		t.Errorf("got (%+v, %v)", got, ok)
	}
	if _, ok := FindContaining(ranges, 50); ok {
		t.Error("expected no containing range for an address in the gap")
	}
}
