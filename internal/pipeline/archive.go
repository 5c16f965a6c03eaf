package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// WriteArchive packages artifacts into a zip archive, in order. Names must
// be unique.
func WriteArchive(w io.Writer, artifacts []Artifact) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		if seen[a.Name] {
			return fmt.Errorf("duplicate archive entry %q", a.Name)
		}
		seen[a.Name] = true

		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     a.Name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", a.Name, err)
		}
		if _, err := f.Write(a.Data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", a.Name, err)
		}
	}
	return zw.Close()
}
