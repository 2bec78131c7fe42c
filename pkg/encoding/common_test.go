package encoding

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
)

type testMessage struct {
	Name string
	Age  uint
}

const testMessageJSONString = `{"Name":"George","Age":67}`

// TestLoadAndUnmarshalNonExistentPath tests that loading fails from a
// non-existent path, passing through the not-exist error.
func TestLoadAndUnmarshalNonExistentPath(t *testing.T) {
	if !os.IsNotExist(LoadAndUnmarshal("/this/does/not/exist", nil)) {
		t.Error("expected LoadAndUnmarshal to pass through non-existence errors")
	}
}

// TestLoadAndUnmarshalDirectory tests that loading fails from a directory.
func TestLoadAndUnmarshalDirectory(t *testing.T) {
	if LoadAndUnmarshal(t.TempDir(), nil) == nil {
		t.Error("expected LoadAndUnmarshal error when loading directory")
	}
}

// TestLoadAndUnmarshalFailure tests that unmarshal failures propagate.
func TestLoadAndUnmarshalFailure(t *testing.T) {
	path := writeTempFile(t, []byte(testMessageJSONString))
	unmarshal := func(_ []byte) error { return errors.New("unmarshal failed") }
	if LoadAndUnmarshal(path, unmarshal) == nil {
		t.Error("expected LoadAndUnmarshal to return an error")
	}
}

// TestLoadAndUnmarshalJSON tests a full load-and-decode round trip.
func TestLoadAndUnmarshalJSON(t *testing.T) {
	path := writeTempFile(t, []byte(testMessageJSONString))
	value := &testMessage{}
	if err := LoadAndUnmarshalJSON(path, value); err != nil {
		t.Fatal("LoadAndUnmarshalJSON failed:", err)
	}
	if value.Name != "George" || value.Age != 67 {
		t.Error("decoded value mismatch:", value)
	}
}

// TestMarshalAndSaveOverDirectory tests that saving over a directory fails.
func TestMarshalAndSaveOverDirectory(t *testing.T) {
	marshal := func() ([]byte, error) { return []byte{0}, nil }
	if MarshalAndSave(t.TempDir(), marshal) == nil {
		t.Error("expected MarshalAndSave to return an error")
	}
}

// TestMarshalAndSaveJSONRoundTrip tests that marshaling, saving, and
// reloading a value round-trips correctly and writes valid JSON.
func TestMarshalAndSaveJSONRoundTrip(t *testing.T) {
	path := writeTempFile(t, nil)
	value := &testMessage{Name: "George", Age: 67}
	if err := MarshalAndSaveJSON(path, value); err != nil {
		t.Fatal("MarshalAndSaveJSON failed:", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal("unable to read saved contents:", err)
	}
	reloaded := &testMessage{}
	if err := json.Unmarshal(contents, reloaded); err != nil {
		t.Fatal("saved contents are not valid JSON:", err)
	}
	if *reloaded != *value {
		t.Error("round-tripped value mismatch:", reloaded)
	}
}

// writeTempFile writes contents to a fresh temporary file within the test's
// scratch directory and returns its path.
func writeTempFile(t *testing.T, contents []byte) string {
	t.Helper()
	file, err := os.CreateTemp(t.TempDir(), "corefs_encoding")
	if err != nil {
		t.Fatal("unable to create temporary file:", err)
	}
	defer file.Close()
	if contents != nil {
		if _, err := file.Write(contents); err != nil {
			t.Fatal("unable to write temporary file:", err)
		}
	}
	return file.Name()
}
