// Package codec centralizes metadata encoding for frame files.
//
// Each frame file records the numeric id of the codec used for its schema
// section, so readers select the decoder from the file rather than from
// configuration. Changing the codec of an existing id is a format break.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
	// ID is the stable on-disk identifier.
	ID() uint8
}

// Stable codec ids. Never renumber.
const (
	IDJSON   uint8 = 1
	IDJSONv2 uint8 = 2
)

// Default is the codec used for newly written files.
var Default Codec = JSONv2{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "json-v2":
		return JSONv2{}, true
	default:
		return nil, false
	}
}

// ByID returns a built-in codec by its on-disk id.
func ByID(id uint8) (Codec, bool) {
	switch id {
	case IDJSON:
		return JSON{}, true
	case IDJSONv2:
		return JSONv2{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests and fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
