package encoding

import "testing"

type testConfig struct {
	Section struct {
		Name string `yaml:"name"`
		Age  uint   `yaml:"age"`
	} `yaml:"section"`
}

const testYAML = `
section:
  name: "Abraham"
  age: 56
`

// TestLoadAndUnmarshalYAML tests that loading and decoding YAML succeeds.
func TestLoadAndUnmarshalYAML(t *testing.T) {
	path := writeTempFile(t, []byte(testYAML))
	value := &testConfig{}
	if err := LoadAndUnmarshalYAML(path, value); err != nil {
		t.Fatal("LoadAndUnmarshalYAML failed:", err)
	}
	if value.Section.Name != "Abraham" || value.Section.Age != 56 {
		t.Error("decoded value mismatch:", value.Section)
	}
}

// TestLoadAndUnmarshalYAMLRejectsUnknownFields tests that the strict decoder
// rejects fields not present in the target structure.
func TestLoadAndUnmarshalYAMLRejectsUnknownFields(t *testing.T) {
	path := writeTempFile(t, []byte("section:\n  name: \"Abraham\"\n  age: 56\n  extra: true\n"))
	value := &testConfig{}
	if err := LoadAndUnmarshalYAML(path, value); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}

// TestMarshalAndSaveYAMLRoundTrip tests a save-then-load round trip.
func TestMarshalAndSaveYAMLRoundTrip(t *testing.T) {
	path := writeTempFile(t, nil)
	original := &testConfig{}
	original.Section.Name = "Abraham"
	original.Section.Age = 56

	if err := MarshalAndSaveYAML(path, original); err != nil {
		t.Fatal("MarshalAndSaveYAML failed:", err)
	}

	reloaded := &testConfig{}
	if err := LoadAndUnmarshalYAML(path, reloaded); err != nil {
		t.Fatal("LoadAndUnmarshalYAML failed:", err)
	}
	if *reloaded != *original {
		t.Error("round-tripped value mismatch:", reloaded)
	}
}
