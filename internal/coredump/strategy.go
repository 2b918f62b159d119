package coredump

import (
	"github.com/memfault/memfaultd/internal/config"
)

// elfHeaderProbeSize is how many bytes of each loaded shared object's own
// ELF header this package retains under the Threads strategy, enough to
// cover e_ident through a handful of program headers.
const elfHeaderProbeSize = 4096

// SelectRanges implements spec.md §4.3 step 5: decide which byte ranges of
// the target's address space are worth keeping, given the configured
// capture strategy. sourceRanges are the ranges the kernel already placed
// in the core stream (the full truth under KernelSelection, and the
// universe SelectRanges may only subset from under Threads).
func SelectRanges(strategy config.CoredumpCaptureStrategy, sourceRanges []MemoryRange, threadStackPointers []uint64, arch Arch, sharedObjects []SharedObject) []MemoryRange {
	if strategy.Kind == config.StrategyKernelSelection {
		return MergeRanges(sourceRanges)
	}

	var kept []MemoryRange
	for _, sp := range threadStackPointers {
		if r, ok := stackRange(sp, strategy.MaxThreadSize, arch, sourceRanges); ok {
			kept = append(kept, r)
		}
	}
	for _, obj := range sharedObjects {
		if r, ok := headerRange(obj, sourceRanges); ok {
			kept = append(kept, r)
		}
	}
	return MergeRanges(kept)
}

// stackRange computes one thread's retained stack window: the part of the
// mapped region containing its stack pointer that holds live frames (from
// SP up to the region end for a downward-growing stack, from the region
// start up to SP for an upward-growing one), capped to maxSize bytes.
func stackRange(sp uint64, maxSize uint64, arch Arch, sourceRanges []MemoryRange) (MemoryRange, bool) {
	containing, ok := FindContaining(sourceRanges, sp)
	if !ok {
		return MemoryRange{}, false
	}
	if maxSize == 0 {
		return containing, true
	}

	if arch.GrowsDown {
		end := containing.End
		if end-sp > maxSize {
			end = sp + maxSize
		}
		return MemoryRange{Start: sp, End: end}, true
	}

	start := containing.Start
	if sp-start > maxSize {
		start = sp - maxSize
	}
	return MemoryRange{Start: start, End: sp}, true
}

// headerRange returns the range needed to read obj's own ELF header,
// clamped to what the source stream actually mapped so step (a)'s
// "every retained byte was present in the input" invariant holds. ok is
// false when obj.Base lies outside every source range.
func headerRange(obj SharedObject, sourceRanges []MemoryRange) (MemoryRange, bool) {
	want := MemoryRange{Start: obj.Base, End: obj.Base + elfHeaderProbeSize}
	if containing, ok := FindContaining(sourceRanges, obj.Base); ok {
		if intersection, ok := want.Intersect(containing); ok {
			return intersection, true
		}
		return containing, true
	}
	return MemoryRange{}, false
}
