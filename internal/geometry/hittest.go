package geometry

import "math"

// Distance returns the euclidean distance between two document points.
func Distance(a, b DocPoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(p, a, b DocPoint) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lengthSquared := dx*dx + dy*dy
	if lengthSquared == 0 {
		return Distance(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lengthSquared
	t = math.Max(0, math.Min(1, t))
	closest := DocPoint{X: a.X + t*dx, Y: a.Y + t*dy}
	return Distance(p, closest)
}

// HitSegment reports whether p lies within tolerance of the segment a-b.
// Arrows hit-test as their underlying segment.
func HitSegment(p, a, b DocPoint, tolerance float64) bool {
	return DistanceToSegment(p, a, b) <= tolerance
}

// HitPath reports whether p lies within tolerance of any segment of a
// freehand path.
func HitPath(p DocPoint, path []DocPoint, tolerance float64) bool {
	if len(path) == 1 {
		return Distance(p, path[0]) <= tolerance
	}
	for i := 1; i < len(path); i++ {
		if HitSegment(p, path[i-1], path[i], tolerance) {
			return true
		}
	}
	return false
}

// HitCircle reports whether p lies within tolerance of the ring of the
// circle centered at center and passing through radiusPoint.
func HitCircle(p, center, radiusPoint DocPoint, tolerance float64) bool {
	radius := Distance(center, radiusPoint)
	return math.Abs(Distance(p, center)-radius) <= tolerance
}

// HitRectEdges reports whether p lies within tolerance of any edge of the
// rectangle spanned by the two opposite corners a and b.
func HitRectEdges(p, a, b DocPoint, tolerance float64) bool {
	rect := DocRectFromCorners(a, b)
	topLeft := DocPoint{X: rect.X, Y: rect.Y}
	topRight := DocPoint{X: rect.X + rect.Width, Y: rect.Y}
	bottomLeft := DocPoint{X: rect.X, Y: rect.Y + rect.Height}
	bottomRight := DocPoint{X: rect.X + rect.Width, Y: rect.Y + rect.Height}

	return HitSegment(p, topLeft, topRight, tolerance) ||
		HitSegment(p, topRight, bottomRight, tolerance) ||
		HitSegment(p, bottomRight, bottomLeft, tolerance) ||
		HitSegment(p, bottomLeft, topLeft, tolerance)
}
