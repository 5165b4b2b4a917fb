package searcher

import "unsafe"

// sliceBytes estimates the heap footprint of a slice's backing array. The
// accounting is deliberately coarse: it tracks the major grown arrays of the
// tree, not total heap.
func sliceBytes[T any](s []T) int64 {
	var elem T
	return int64(unsafe.Sizeof(elem)) * int64(cap(s))
}
