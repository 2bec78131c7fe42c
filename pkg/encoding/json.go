package encoding

import "encoding/json"

// LoadAndUnmarshalJSON loads data from path and decodes it as JSON into
// value.
func LoadAndUnmarshalJSON(path string, value interface{}) error {
	return LoadAndUnmarshal(path, func(data []byte) error {
		return json.Unmarshal(data, value)
	})
}

// MarshalAndSaveJSON marshals value as indented JSON and atomically writes
// it to path. Used by pkg/export to produce comparison reports.
func MarshalAndSaveJSON(path string, value interface{}) error {
	return MarshalAndSave(path, func() ([]byte, error) {
		return json.MarshalIndent(value, "", "  ")
	})
}
