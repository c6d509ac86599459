package constants

import "strings"

// MaxImageBytes caps an uploaded ingredient photo. 100 MB is the enforced limit
// and the only one reported to callers.
const MaxImageBytes int64 = 100 * 1024 * 1024

// MaxImageMB is MaxImageBytes expressed for user-facing messages.
const MaxImageMB = 100

// AttachmentName is the file name the agent sees for an uploaded photo.
const AttachmentName = "image.jpg"

// DefaultImageMediaType is used when an upload carries no usable content type.
const DefaultImageMediaType = "image/jpeg"

// AllowedExtensions holds the file extensions the extract CLI accepts.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
}

// IsImageMediaType reports whether a content type names an image.
func IsImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
