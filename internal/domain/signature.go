package domain

// Placement defaults applied when the caller leaves a value out.
const (
	DefaultCustomerName    = "Kunde"
	DefaultSignatureX      = 400
	DefaultSignatureY      = 50
	DefaultSignatureWidth  = 100
	DefaultSignatureHeight = 50
)

// Reserved field names inside the field-definition document.
const (
	SignatureFieldName    = "signature"
	CustomerNameFieldName = "customerName"
)

// Placement is the caller-provided signature rectangle in PDF user space units.
// No bounds are checked against the page; degenerate values pass through.
type Placement struct {
	X      int
	Y      int
	Width  int
	Height int
}

// DefaultPlacement returns the rectangle used when a caller sends no geometry.
func DefaultPlacement() Placement {
	return Placement{
		X:      DefaultSignatureX,
		Y:      DefaultSignatureY,
		Width:  DefaultSignatureWidth,
		Height: DefaultSignatureHeight,
	}
}

// Rect is a PDF rectangle given as lower-left and upper-right corners.
type Rect struct {
	LLX, LLY, URX, URY int
}

// SignatureRect is the rectangle of the signature field.
func (p Placement) SignatureRect() Rect {
	return Rect{LLX: p.X, LLY: p.Y, URX: p.X + p.Width, URY: p.Y + p.Height}
}

// NameRect is the rectangle of the customer name field, 10 to 30 units
// off the signature rectangle's lower edge.
func (p Placement) NameRect() Rect {
	return Rect{LLX: p.X, LLY: p.Y - 30, URX: p.X + p.Width, URY: p.Y - 10}
}

// SignatureRequest carries everything the pipeline needs besides the document itself.
type SignatureRequest struct {
	CustomerName string
	Placement    Placement
}

// Name returns the customer name, or DefaultCustomerName when empty.
func (r SignatureRequest) Name() string {
	if r.CustomerName == "" {
		return DefaultCustomerName
	}
	return r.CustomerName
}
