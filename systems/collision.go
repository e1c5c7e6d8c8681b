package systems

import (
	"math"

	"github.com/pthm-cable/trackrunner/components"
)

// parallelEpsilon is the denominator magnitude below which segments are treated as parallel.
const parallelEpsilon = 1e-12

// Vec2 is a point in normalized track space.
type Vec2 struct {
	X, Y float64
}

// CollisionResult lists the wall cells the vehicle rectangle touches.
type CollisionResult struct {
	Collided bool
	Cells    []components.Cell
}

// Corners returns the vehicle rectangle as front-left, front-right, rear-right, rear-left.
// The rectangle is Length long along the heading and Width across it, centred
// ReferenceOffset ahead of the kinematic position.
func Corners(s components.VehicleState, spec components.VehicleSpec) [4]Vec2 {
	fx, fy := math.Cos(s.Heading), math.Sin(s.Heading)
	lx, ly := -fy, fx

	cx := s.X + fx*spec.ReferenceOffset
	cy := s.Y + fy*spec.ReferenceOffset
	hl, hw := spec.Length/2, spec.Width/2

	return [4]Vec2{
		{cx + fx*hl + lx*hw, cy + fy*hl + ly*hw},
		{cx + fx*hl - lx*hw, cy + fy*hl - ly*hw},
		{cx - fx*hl - lx*hw, cy - fy*hl - ly*hw},
		{cx - fx*hl + lx*hw, cy - fy*hl + ly*hw},
	}
}

// CheckCollision tests the vehicle rectangle against every wall cell in its
// bounding cell range. Contact is inclusive: touching a cell edge collides.
// Cells are reported in x-major scan order.
func CheckCollision(s components.VehicleState, spec components.VehicleSpec, grid *Grid) CollisionResult {
	corners := Corners(s, spec)

	minX, minY := grid.NormalizedToCell(corners[0].X, corners[0].Y)
	maxX, maxY := minX, minY
	for _, c := range corners[1:] {
		cx, cy := grid.NormalizedToCell(c.X, c.Y)
		minX, maxX = min(minX, cx), max(maxX, cx)
		minY, maxY = min(minY, cy), max(maxY, cy)
	}

	var result CollisionResult
	cell := grid.CellSize()
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			if !grid.IsWall(x, y) {
				continue
			}
			if rectTouchesCell(&corners, float64(x)*cell, float64(y)*cell, cell) {
				result.Collided = true
				result.Cells = append(result.Cells, components.Cell{X: x, Y: y})
			}
		}
	}
	return result
}

// rectTouchesCell tests the oriented rectangle against the axis-aligned cell
// [rx, rx+size]×[ry, ry+size].
func rectTouchesCell(corners *[4]Vec2, rx, ry, size float64) bool {
	cellCorners := [4]Vec2{
		{rx, ry},
		{rx + size, ry},
		{rx + size, ry + size},
		{rx, ry + size},
	}

	for i := 0; i < 4; i++ {
		a1, a2 := corners[i], corners[(i+1)%4]
		for j := 0; j < 4; j++ {
			if SegmentsIntersect(a1, a2, cellCorners[j], cellCorners[(j+1)%4]) {
				return true
			}
		}
	}

	// No edge crossings: one shape may still contain the other
	for _, c := range corners {
		if c.X >= rx && c.X <= rx+size && c.Y >= ry && c.Y <= ry+size {
			return true
		}
	}
	return pointInConvex(corners, Vec2{rx + size/2, ry + size/2})
}

// SegmentsIntersect reports whether segments a1-a2 and b1-b2 intersect, using
// the parametric form. Both parameters must lie in [0,1]. Parallel, coincident
// and zero-length segments never intersect.
func SegmentsIntersect(a1, a2, b1, b2 Vec2) bool {
	den := (b2.Y-b1.Y)*(a2.X-a1.X) - (b2.X-b1.X)*(a2.Y-a1.Y)
	if math.Abs(den) < parallelEpsilon {
		return false
	}
	uA := ((b2.X-b1.X)*(a1.Y-b1.Y) - (b2.Y-b1.Y)*(a1.X-b1.X)) / den
	uB := ((a2.X-a1.X)*(a1.Y-b1.Y) - (a2.Y-a1.Y)*(a1.X-b1.X)) / den
	return uA >= 0 && uA <= 1 && uB >= 0 && uB <= 1
}

// pointInConvex reports whether p is inside the convex quad (either winding).
func pointInConvex(poly *[4]Vec2, p Vec2) bool {
	var pos, neg bool
	for i := 0; i < 4; i++ {
		a, b := poly[i], poly[(i+1)%4]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if cross > 0 {
			pos = true
		} else if cross < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}
