// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer builds and reads the optional fields of partial updates.

Store patches use nil to mean "leave unchanged", so callers need a value's
address inline and a safe read when logging what changed.
*/
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value of T when p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
