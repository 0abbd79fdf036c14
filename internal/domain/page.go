package domain

import "math"

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page: offset-пагинация (page с 1).
type Page struct {
	Number  int
	PerPage int
}

func NewPage(number, perPage int) (Page, error) {
	if number < 1 || perPage < 1 || perPage > MaxPerPage {
		return Page{}, ErrInvalidPage
	}
	// (number-1)*perPage не должен переполнить int в Offset
	if number > math.MaxInt/perPage {
		return Page{}, ErrInvalidPage
	}
	return Page{Number: number, PerPage: perPage}, nil
}

func FirstPage() Page { return Page{Number: 1, PerPage: DefaultPerPage} }

func (p Page) Limit() int  { return p.PerPage }
func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }
