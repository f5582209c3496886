package common

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPageNumber keeps Offset within int for any page size.
	MaxPageNumber = math.MaxInt/MaxPageSize + 1
)

type Page struct {
	Number int
	Size   int
}

func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

func (p Page) TotalPages(total int) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
