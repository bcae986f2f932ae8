package project

import "math"

// shapeEpsilon absorbs float rounding in x+w and y+h edge checks.
const shapeEpsilon = 1e-9

// Shape is an axis-aligned rectangle in coordinates normalized to the scene
// image, so (0,0) is the top-left corner and (1,1) the bottom-right.
type Shape struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Valid reports whether the rectangle has positive area and lies inside the
// unit square.
func (s Shape) Valid() bool {
	for _, f := range []float64{s.X, s.Y, s.W, s.H} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return s.X >= 0 && s.Y >= 0 &&
		s.W > 0 && s.H > 0 &&
		s.X+s.W <= 1+shapeEpsilon &&
		s.Y+s.H <= 1+shapeEpsilon
}

