package ingest

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/inventory"
)

// AllowedExt checks if a file extension is one of constants.AllowedExtensions.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// LoadImage reads a local photo into an intake request, applying the same
// type and size rules as an HTTP upload.
func LoadImage(path string) (inventory.IntakeRequest, error) {
	var out inventory.IntakeRequest

	ext := filepath.Ext(path)
	if !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension %q", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return out, err
	}
	if info.Size() > constants.MaxImageBytes {
		return out, fmt.Errorf("%s is larger than %dMB", path, constants.MaxImageMB)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}

	mediaType := mime.TypeByExtension("." + constants.NormalizeExt(ext))
	if !constants.IsImageMediaType(mediaType) {
		mediaType = constants.DefaultImageMediaType
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}

	out.Filename = filepath.Base(path)
	out.MediaType = mediaType
	out.Data = data
	return out, nil
}
