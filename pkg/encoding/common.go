// Package encoding provides the loading/saving, atomic-write, and
// binary-to-text conversion primitives shared by pkg/config and pkg/export.
package encoding

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadAndUnmarshal reads the data at path and invokes unmarshal (usually a
// closure over json.Unmarshal or yaml.Unmarshal) to decode it.
func LoadAndUnmarshal(path string, unmarshal func([]byte) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("unable to load file: %w", err)
	}
	if err := unmarshal(data); err != nil {
		return fmt.Errorf("unable to unmarshal data: %w", err)
	}
	return nil
}

// MarshalAndSave invokes marshal and writes the result atomically to path
// with user-only read/write permissions. Atomicity is achieved by writing to
// a sibling temporary file and renaming it into place, so a crash or error
// mid-write never leaves a truncated file at path.
func MarshalAndSave(path string, marshal func() ([]byte, error)) error {
	data, err := marshal()
	if err != nil {
		return fmt.Errorf("unable to marshal message: %w", err)
	}
	if err := writeFileAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("unable to write message data: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to path by first writing to a temporary file
// in the same directory (ensuring the rename is same-filesystem) and then
// renaming it into place.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	directory := filepath.Dir(path)
	temporary, err := os.CreateTemp(directory, ".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	temporaryPath := temporary.Name()

	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("unable to write temporary file: %w", err)
	}
	if err := temporary.Chmod(mode); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("unable to set temporary file permissions: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("unable to rename temporary file into place: %w", err)
	}
	return nil
}
