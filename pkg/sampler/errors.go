package sampler

import "errors"

var (
	// ErrBufferLength is returned when a position buffer does not hold whole triangles.
	ErrBufferLength = errors.New("buffer length is not a multiple of 3")

	// ErrBufferMismatch is returned when the normal buffer does not match the position buffer.
	ErrBufferMismatch = errors.New("normal buffer length does not match position buffer")

	// ErrEmptyMesh is returned when the buffers hold no triangles.
	ErrEmptyMesh = errors.New("mesh has no triangles")

	// ErrZeroArea is returned when every triangle is degenerate.
	ErrZeroArea = errors.New("mesh has zero surface area")

	// ErrInvalidDensity is returned for a non-positive or non-finite sample density.
	ErrInvalidDensity = errors.New("sample density must be a positive finite number")

	// ErrDegenerateTriangle is returned when the barycentric solve for a
	// triangle has a vanishing denominator.
	ErrDegenerateTriangle = errors.New("degenerate triangle")

	// ErrSampleRejected is returned when both the drawn point and its
	// reflection fail the inclusion test on every attempt.
	ErrSampleRejected = errors.New("sample rejected after reflection")
)
