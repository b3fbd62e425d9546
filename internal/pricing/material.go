package pricing

import (
	"fmt"
	"strings"
)

// Material is one of the filaments the shop prints with.
type Material uint8

const (
	PLA Material = iota
	PETG
	ABS

	numMaterials
)

var materialNames = [numMaterials]string{PLA: "PLA", PETG: "PETG", ABS: "ABS"}

// Materials lists every supported material in display order.
func Materials() []Material {
	out := make([]Material, 0, numMaterials)
	for m := Material(0); m < numMaterials; m++ {
		out = append(out, m)
	}
	return out
}

func (m Material) String() string {
	if m >= numMaterials {
		return fmt.Sprintf("Material(%d)", uint8(m))
	}
	return materialNames[m]
}

// Valid reports whether m is a known material.
func (m Material) Valid() bool {
	return m < numMaterials
}

// ParseMaterial resolves a case-insensitive material name.
func ParseMaterial(name string) (Material, error) {
	for m, n := range materialNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Material(m), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown material %q", ErrInvalidParameter, name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Material) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: unknown material %d", ErrInvalidParameter, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Material) UnmarshalText(text []byte) error {
	parsed, err := ParseMaterial(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
