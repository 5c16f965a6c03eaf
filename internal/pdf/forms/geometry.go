package forms

import "math"

// Box is a page's media box in user space plus its display rotation
type Box struct {
	LLX, LLY, URX, URY float64
	Rotate             int
}

// Rect is an axis-aligned rectangle in PDF user space (origin bottom-left)
type Rect struct {
	LLX, LLY, URX, URY float64
}

func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

// Width returns the width of the page as displayed
func (b Box) Width() float64 {
	if b.Rotate == 90 || b.Rotate == 270 {
		return b.URY - b.LLY
	}
	return b.URX - b.LLX
}

// Height returns the height of the page as displayed
func (b Box) Height() float64 {
	if b.Rotate == 90 || b.Rotate == 270 {
		return b.URX - b.LLX
	}
	return b.URY - b.LLY
}

// ToUser converts a display point (origin top-left of the page as shown,
// rotation applied) into user space.
func (b Box) ToUser(x, y float64) (float64, float64) {
	switch b.Rotate {
	case 90:
		return b.LLX + y, b.LLY + x
	case 180:
		return b.URX - x, b.LLY + y
	case 270:
		return b.URX - y, b.URY - x
	default:
		return b.LLX + x, b.URY - y
	}
}

// RectToUser converts a display rectangle given by two opposite corners
func (b Box) RectToUser(x0, y0, x1, y1 float64) Rect {
	ax, ay := b.ToUser(x0, y0)
	bx, by := b.ToUser(x1, y1)
	return Rect{
		LLX: math.Min(ax, bx),
		LLY: math.Min(ay, by),
		URX: math.Max(ax, bx),
		URY: math.Max(ay, by),
	}
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.URX <= r.LLX || r.URY <= r.LLY
}
