// Package meshtest provides mesh fixtures for tests.
package meshtest

import "github.com/Simplici0/printquote/internal/geometry"

// cubeFaces lists the 12 triangles of the unit cube with outward-facing
// counter-clockwise winding.
var cubeFaces = [12][3][3]float64{
	{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}}, {{0, 0, 0}, {1, 1, 0}, {1, 0, 0}}, // z=0
	{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}}, {{0, 0, 1}, {1, 1, 1}, {0, 1, 1}}, // z=1
	{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}}, {{0, 0, 0}, {1, 0, 1}, {0, 0, 1}}, // y=0
	{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}}, {{0, 1, 0}, {1, 1, 1}, {1, 1, 0}}, // y=1
	{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}}, {{0, 0, 0}, {0, 1, 1}, {0, 1, 0}}, // x=0
	{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}}, {{1, 0, 0}, {1, 1, 1}, {1, 0, 1}}, // x=1
}

// Cube returns an axis-aligned cube with the given edge length whose minimum
// corner sits at origin.
func Cube(origin geometry.Vector3, edge float64) geometry.Mesh {
	return Box(origin, geometry.NewVector3(edge, edge, edge))
}

// Box returns an axis-aligned box with the given minimum corner and size.
func Box(origin, size geometry.Vector3) geometry.Mesh {
	mesh := geometry.Mesh{Triangles: make([]geometry.Triangle, 0, len(cubeFaces))}
	for _, face := range cubeFaces {
		var v [3]geometry.Vector3
		for i, p := range face {
			v[i] = geometry.NewVector3(
				origin.X+p[0]*size.X,
				origin.Y+p[1]*size.Y,
				origin.Z+p[2]*size.Z,
			)
		}
		mesh.Triangles = append(mesh.Triangles, geometry.NewTriangle(v[0], v[1], v[2]))
	}
	return mesh
}
