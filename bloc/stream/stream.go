// Package stream provides lazy, pull-driven record sequences.
//
// Every helper wraps an iter.Seq and pulls from it one element at a time;
// none of them starts background work, so a consumer cancels simply by
// stopping its range loop.
package stream

import (
	"iter"
	"slices"
	"sync/atomic"
)

// FromSlice returns a sequence over items. The items are yielded as is,
// never copied.
func FromSlice[T any](items []T) iter.Seq[T] {
	return slices.Values(items)
}

// Collect materializes seq.
func Collect[T any](seq iter.Seq[T]) []T {
	result := slices.Collect(seq)
	if result == nil {
		return []T{}
	}
	return result
}

// Filter yields the elements of seq satisfying keep.
func Filter[T any](seq iter.Seq[T], keep func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if !keep(v) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Skip drops the first n elements of seq.
func Skip[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		skipped := 0
		for v := range seq {
			if skipped < n {
				skipped++
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Limit yields at most n elements of seq and stops pulling upstream once
// the n-th element has been yielded.
func Limit[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		taken := 0
		for v := range seq {
			if !yield(v) {
				return
			}
			taken++
			if taken >= n {
				return
			}
		}
	}
}

// Buffered materializes seq on the first pull and then replays the buffer
// through each sequence produced by fanout, in order. Used where several
// passes over the same input are required.
func Buffered[T any](seq iter.Seq[T], fanout func(iter.Seq[T]) []iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		buffered := slices.Collect(seq)
		for _, pass := range fanout(slices.Values(buffered)) {
			for v := range pass {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Tap calls observe for every element flowing through seq.
func Tap[T any](seq iter.Seq[T], observe func(T)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			observe(v)
			if !yield(v) {
				return
			}
		}
	}
}

// Once makes seq single-pass: ranging over the result a second time yields
// nothing, even if the first pass was abandoned early.
func Once[T any](seq iter.Seq[T]) iter.Seq[T] {
	var started atomic.Bool
	return func(yield func(T) bool) {
		if !started.CompareAndSwap(false, true) {
			return
		}
		for v := range seq {
			if !yield(v) {
				return
			}
		}
	}
}
