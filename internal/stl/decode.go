// Package stl decodes ASCII and binary STL files into geometry meshes.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/printquote/internal/geometry"
)

const (
	headerSize     = 80
	countSize      = 4
	binaryTriangle = 50

	// MaxFileSize bounds how much of an upload DecodeReader will buffer.
	MaxFileSize = 64 << 20
)

// Format identifies the STL encoding.
type Format string

const (
	FormatBinary Format = "binary"
	FormatASCII  Format = "ascii"
)

// Info describes a decoded file.
type Info struct {
	Name      string `json:"name,omitempty"`
	Format    Format `json:"format"`
	Triangles int    `json:"triangles"`
}

// DecodeReader reads r fully and decodes it. Inputs larger than MaxFileSize
// are rejected.
func DecodeReader(r io.Reader) (geometry.Mesh, Info, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return geometry.Mesh{}, Info{}, fmt.Errorf("read stl: %w", err)
	}
	if len(data) > MaxFileSize {
		return geometry.Mesh{}, Info{}, fmt.Errorf("%w: file exceeds %d bytes", geometry.ErrMalformedMesh, MaxFileSize)
	}
	return Decode(data)
}

// Decode detects the STL format of data and decodes every facet.
//
// Files whose size matches the binary layout exactly are decoded as binary
// even when the header starts with "solid"; several exporters write such
// headers.
func Decode(data []byte) (geometry.Mesh, Info, error) {
	if isBinary(data) {
		return decodeBinary(data)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		mesh, info, err := decodeASCII(data)
		if err == nil && info.Triangles == 0 && hasBinaryBody(data) {
			return decodeBinary(data)
		}
		return mesh, info, err
	}
	return decodeBinary(data)
}

// hasBinaryBody reports whether data holds at least the triangles its binary
// header declares. Trailing bytes are allowed.
func hasBinaryBody(data []byte) bool {
	if len(data) < headerSize+countSize {
		return false
	}
	count := binary.LittleEndian.Uint32(data[headerSize:])
	return count > 0 && uint64(len(data)) >= uint64(headerSize+countSize)+uint64(count)*binaryTriangle
}

func isBinary(data []byte) bool {
	if len(data) < headerSize+countSize {
		return false
	}
	count := binary.LittleEndian.Uint32(data[headerSize:])
	return uint64(len(data)) == uint64(headerSize+countSize)+uint64(count)*binaryTriangle
}

func decodeBinary(data []byte) (geometry.Mesh, Info, error) {
	info := Info{Format: FormatBinary}
	if len(data) < headerSize+countSize {
		return geometry.Mesh{}, info, fmt.Errorf("%w: binary stl shorter than header", geometry.ErrMalformedMesh)
	}

	info.Name = strings.TrimSpace(string(bytes.TrimRight(data[:headerSize], "\x00")))
	count := binary.LittleEndian.Uint32(data[headerSize:])
	body := data[headerSize+countSize:]
	if uint64(len(body)) < uint64(count)*binaryTriangle {
		return geometry.Mesh{}, info, fmt.Errorf("%w: header declares %d triangles, data holds %d",
			geometry.ErrMalformedMesh, count, len(body)/binaryTriangle)
	}

	mesh := geometry.Mesh{Triangles: make([]geometry.Triangle, 0, count)}
	for i := uint32(0); i < count; i++ {
		rec := body[int(i)*binaryTriangle:]
		// Skip the 12-byte normal; it is recomputable and often wrong.
		v1 := readVertex(rec[12:])
		v2 := readVertex(rec[24:])
		v3 := readVertex(rec[36:])
		if !v1.IsFinite() || !v2.IsFinite() || !v3.IsFinite() {
			return geometry.Mesh{}, info, fmt.Errorf("%w: non-finite vertex in triangle %d", geometry.ErrMalformedMesh, i)
		}
		mesh.Triangles = append(mesh.Triangles, geometry.NewTriangle(v1, v2, v3))
	}

	info.Triangles = mesh.TriangleCount()
	return mesh, info, nil
}

func readVertex(b []byte) geometry.Vector3 {
	return geometry.NewVector3(
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	)
}

func decodeASCII(data []byte) (geometry.Mesh, Info, error) {
	info := Info{Format: FormatASCII}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		vertices []geometry.Vector3
		facet    []geometry.Vector3
		inFacet  bool
		line     int
	)

	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 && info.Name == "" {
				info.Name = strings.TrimRight(strings.Join(fields[1:], " "), "\x00")
			}

		case "facet":
			if inFacet {
				return geometry.Mesh{}, info, fmt.Errorf("%w: line %d: facet without endfacet", geometry.ErrMalformedMesh, line)
			}
			inFacet = true
			facet = facet[:0]

		case "vertex":
			if !inFacet {
				return geometry.Mesh{}, info, fmt.Errorf("%w: line %d: vertex outside facet", geometry.ErrMalformedMesh, line)
			}
			v, err := parseVertex(fields)
			if err != nil {
				return geometry.Mesh{}, info, fmt.Errorf("%w: line %d: %v", geometry.ErrMalformedMesh, line, err)
			}
			facet = append(facet, v)

		case "endfacet":
			if !inFacet {
				return geometry.Mesh{}, info, fmt.Errorf("%w: line %d: endfacet without facet", geometry.ErrMalformedMesh, line)
			}
			if len(facet) != 3 {
				return geometry.Mesh{}, info, fmt.Errorf("%w: line %d: facet has %d vertices", geometry.ErrMalformedMesh, line, len(facet))
			}
			vertices = append(vertices, facet...)
			facet = facet[:0]
			inFacet = false
		}
	}

	if err := scanner.Err(); err != nil {
		return geometry.Mesh{}, info, fmt.Errorf("%w: read ascii stl: %v", geometry.ErrMalformedMesh, err)
	}
	if inFacet {
		return geometry.Mesh{}, info, fmt.Errorf("%w: unterminated facet", geometry.ErrMalformedMesh)
	}

	mesh, err := geometry.FromVertices(vertices)
	if err != nil {
		return geometry.Mesh{}, info, err
	}
	info.Triangles = mesh.TriangleCount()
	return mesh, info, nil
}

func parseVertex(fields []string) (geometry.Vector3, error) {
	if len(fields) != 4 {
		return geometry.Vector3{}, fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields)-1)
	}

	var c [3]float64
	for i := range c {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return geometry.Vector3{}, fmt.Errorf("parse coordinate %q: %v", fields[i+1], err)
		}
		c[i] = f
	}

	v := geometry.NewVector3(c[0], c[1], c[2])
	if !v.IsFinite() {
		return geometry.Vector3{}, fmt.Errorf("non-finite coordinate")
	}
	return v, nil
}
