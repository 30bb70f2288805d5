package types

// DefaultPageLimit is the page size used when the client does not ask for one
const DefaultPageLimit = 6

// MaxPageLimit caps client supplied page sizes
const MaxPageLimit = 100

// Page selects a 1-based page of Limit items
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page into valid bounds
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Limit
}
