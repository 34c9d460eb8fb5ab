// Package zip bundles translation artifacts into a single downloadable
// archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Artifact is one file to place in the archive.
type Artifact struct {
	Name string
	Data []byte
}

// Archive writes the artifacts into an in-memory zip archive, preserving
// the given order.
func Archive(artifacts []Artifact) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, artifact := range artifacts {
		w, err := zw.Create(artifact.Name)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", artifact.Name, err)
		}
		if _, err := w.Write(artifact.Data); err != nil {
			return nil, fmt.Errorf("write %s: %w", artifact.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
