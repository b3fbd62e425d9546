// Package geometry holds the triangle mesh model and the volume estimator.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedMesh reports geometry that cannot form whole triangles.
	ErrMalformedMesh = errors.New("malformed mesh")
	// ErrEmptyMesh reports a mesh with zero triangles.
	ErrEmptyMesh = errors.New("empty mesh")
)

// Triangle is a single facet. Winding is whatever the source file used.
type Triangle struct {
	V1, V2, V3 Vector3
}

// NewTriangle creates a triangle from three vertices.
func NewTriangle(v1, v2, v3 Vector3) Triangle {
	return Triangle{V1: v1, V2: v2, V3: v3}
}

// SignedVolume returns the signed volume of the tetrahedron spanned by the
// origin and the triangle.
func (t Triangle) SignedVolume() float64 {
	return t.V1.Dot(t.V2.Cross(t.V3)) / 6.0
}

// Area returns the surface area of the triangle.
func (t Triangle) Area() float64 {
	return t.V2.Sub(t.V1).Cross(t.V3.Sub(t.V1)).Length() / 2.0
}

// Reversed returns the triangle with opposite winding.
func (t Triangle) Reversed() Triangle {
	return Triangle{V1: t.V1, V2: t.V3, V3: t.V2}
}

// Mesh is an ordered triangle soup.
type Mesh struct {
	Triangles []Triangle
}

// FromVertices groups a flat vertex stream into triangles, three vertices
// each. A stream whose length is not a multiple of three is rejected.
func FromVertices(vertices []Vector3) (Mesh, error) {
	if len(vertices)%3 != 0 {
		return Mesh{}, fmt.Errorf("%w: %d vertices is not a multiple of 3", ErrMalformedMesh, len(vertices))
	}

	triangles := make([]Triangle, 0, len(vertices)/3)
	for i := 0; i+2 < len(vertices); i += 3 {
		triangles = append(triangles, NewTriangle(vertices[i], vertices[i+1], vertices[i+2]))
	}
	return Mesh{Triangles: triangles}, nil
}

// TriangleCount returns the number of triangles in the mesh
func (m Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// Volume returns the enclosed volume in the mesh's length unit cubed, using
// the divergence theorem. The sign of the sum is discarded so winding
// direction does not matter; open or self-intersecting meshes produce an
// approximation.
func (m Mesh) Volume() (float64, error) {
	if len(m.Triangles) == 0 {
		return 0, ErrEmptyMesh
	}

	sum := 0.0
	for _, t := range m.Triangles {
		sum += t.V1.Dot(t.V2.Cross(t.V3))
	}

	volume := math.Abs(sum) / 6.0
	if math.IsNaN(volume) || math.IsInf(volume, 0) {
		return 0, fmt.Errorf("%w: non-finite volume", ErrMalformedMesh)
	}
	return volume, nil
}

// SurfaceArea calculates the total surface area of the mesh
func (m Mesh) SurfaceArea() float64 {
	total := 0.0
	for _, t := range m.Triangles {
		total += t.Area()
	}
	return total
}

// BoundingBox calculates the axis-aligned bounds of the mesh
func (m Mesh) BoundingBox() BoundingBox {
	bbox := NewBoundingBox()
	for _, t := range m.Triangles {
		bbox.Extend(t.V1)
		bbox.Extend(t.V2)
		bbox.Extend(t.V3)
	}
	return bbox
}
