package codec

import "github.com/go-json-experiment/json"

// JSONv2 is a JSON codec backed by github.com/go-json-experiment/json.
//
// Unmarshal rejects duplicate object names and invalid UTF-8, which makes
// it the stricter choice for persisted schemas.
type JSONv2 struct{}

// Marshal encodes the value to JSON.
func (JSONv2) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSONv2) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json-v2").
func (JSONv2) Name() string { return "json-v2" }

// ID returns IDJSONv2.
func (JSONv2) ID() uint8 { return IDJSONv2 }

// Append encodes the value to JSON and appends it to dst.
func (c JSONv2) Append(dst []byte, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
