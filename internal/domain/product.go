package domain

type Product struct {
	ID    string
	Name  string
	Price Money
	Image string
}

// HasDisplayData reports whether the product carries what a view needs to
// render it. Create responses sometimes only reference the product by id.
func (p Product) HasDisplayData() bool {
	return p.Name != ""
}
