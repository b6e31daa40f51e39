package core

// Area is an axis-aligned rectangle of cells, inclusive on both corners
type Area struct {
	MinX, MinY int
	MaxX, MaxY int
}

// AreaOf returns the smallest area covering both points
func AreaOf(a, b Point) Area {
	return Area{
		MinX: min(a.X, b.X),
		MinY: min(a.Y, b.Y),
		MaxX: max(a.X, b.X),
		MaxY: max(a.Y, b.Y),
	}
}

// Rect builds an area from a top-left corner and dimensions (minimum 1x1)
func Rect(x, y, width, height int) Area {
	return Area{MinX: x, MinY: y, MaxX: x + max(width, 1) - 1, MaxY: y + max(height, 1) - 1}
}

// Width returns the number of columns covered
func (a Area) Width() int { return a.MaxX - a.MinX + 1 }

// Height returns the number of rows covered
func (a Area) Height() int { return a.MaxY - a.MinY + 1 }

// Empty reports whether the area covers no cells
func (a Area) Empty() bool { return a.MaxX < a.MinX || a.MaxY < a.MinY }

// Contains reports whether (x, y) lies inside the area
func (a Area) Contains(x, y int) bool {
	return x >= a.MinX && x <= a.MaxX && y >= a.MinY && y <= a.MaxY
}

// ContainsPoint reports whether p lies inside the area
func (a Area) ContainsPoint(p Point) bool {
	return a.Contains(p.X, p.Y)
}

// Intersects reports whether the two areas share at least one cell
func (a Area) Intersects(b Area) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.MinX <= b.MaxX && b.MinX <= a.MaxX && a.MinY <= b.MaxY && b.MinY <= a.MaxY
}

// Union returns the smallest area covering both
func (a Area) Union(b Area) Area {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return Area{
		MinX: min(a.MinX, b.MinX),
		MinY: min(a.MinY, b.MinY),
		MaxX: max(a.MaxX, b.MaxX),
		MaxY: max(a.MaxY, b.MaxY),
	}
}

// Extend grows the area to include p
func (a Area) Extend(p Point) Area {
	return a.Union(Area{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
}

// Expand grows the area by margin cells on every side
func (a Area) Expand(margin int) Area {
	return Area{MinX: a.MinX - margin, MinY: a.MinY - margin, MaxX: a.MaxX + margin, MaxY: a.MaxY + margin}
}

// Clamp restricts the area to [0,width) x [0,height)
func (a Area) Clamp(width, height int) Area {
	return Area{
		MinX: max(0, a.MinX),
		MinY: max(0, a.MinY),
		MaxX: min(width-1, a.MaxX),
		MaxY: min(height-1, a.MaxY),
	}
}

// EmptyArea is the identity for Union
var EmptyArea = Area{MinX: 1, MinY: 1, MaxX: 0, MaxY: 0}
