package domain

const (
	MinQuantity = 1
	MaxQuantity = 5
)

// QuantityBounds is the closed range a cart line quantity may take.
// The server enforces it; views mirror it to avoid pointless requests.
type QuantityBounds struct {
	Min int
	Max int
}

func DefaultQuantityBounds() QuantityBounds {
	return QuantityBounds{Min: MinQuantity, Max: MaxQuantity}
}

// Clamp pins q into [Min, Max]. A non-positive Max means unbounded above.
func (b QuantityBounds) Clamp(q int) int {
	if q < b.Min {
		return b.Min
	}
	if b.Max > 0 && q > b.Max {
		return b.Max
	}
	return q
}

func (b QuantityBounds) Contains(q int) bool {
	return b.Clamp(q) == q
}
