package content

import (
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/kristianoye/klf-yap/pkg/models"
)

// FileContent is one file's bytes plus a digest, as loaded for a
// content scan.
type FileContent struct {
	Path   string
	Data   []byte
	Digest uint64
}

// ReadFile reads an entry's bytes in one shot. The scanner never
// streams partial reads; this is the single point a scan touches I/O.
// Failures surface as a *models.ContentReadError.
func ReadFile(entry *models.Entry) (*FileContent, error) {
	data, err := os.ReadFile(entry.FullPath)
	if err != nil {
		return nil, &models.ContentReadError{Path: entry.FullPath, Err: err}
	}
	return &FileContent{
		Path:   entry.FullPath,
		Data:   data,
		Digest: xxhash.Sum64(data),
	}, nil
}
