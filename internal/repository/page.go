package repository

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps Number*Size within int32 so offsets never overflow.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

// Page selects a zero-based slice of a result ordered newest first.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number and size into the accepted range.
func NewPage(number, size int) Page {
	if number < 0 {
		number = 0
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return p.Number * p.Size
}
