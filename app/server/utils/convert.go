package utils

// P returns a pointer to a copy of v.
func P[T any](v T) *T {
	return &v
}

// V dereferences p, falling back to the zero value when p is nil.
func V[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
