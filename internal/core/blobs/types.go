package blobs

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

// mediaExtensions maps every servable MIME type to the extension blobs are stored under
var mediaExtensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"image/x-icon":    ".ico",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/ogg":       ".ogv",
	"video/avi":       ".avi",
	"video/quicktime": ".mov",
	"video/mpeg":      ".mpeg",
}

// NormalizeMimeType strips parameters and converts non-standard MIME types to
// their standard equivalents (image/jpg → image/jpeg)
func NormalizeMimeType(mimeType string) string {
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch mimeType {
	case "image/jpg":
		return "image/jpeg"
	case "image/vnd.microsoft.icon":
		return "image/x-icon"
	case "video/x-msvideo":
		return "video/avi"
	default:
		return mimeType
	}
}

// SniffMimeType decides the stored type from the content. The declared type
// only counts for video containers the detector does not recognise; a body
// that sniffs as anything else (text/html, for one) keeps its detected type
// and fails IsImage/IsVideo.
func SniffMimeType(declared string, data []byte) string {
	detected := NormalizeMimeType(http.DetectContentType(data))
	if IsImage(detected) || IsVideo(detected) {
		return detected
	}

	declared = NormalizeMimeType(declared)
	if detected == "application/octet-stream" && IsVideo(declared) {
		return declared
	}
	return detected
}

// IsImage reports whether the MIME type is a servable image
func IsImage(mimeType string) bool {
	mimeType = NormalizeMimeType(mimeType)
	_, known := mediaExtensions[mimeType]
	return known && strings.HasPrefix(mimeType, "image/")
}

// IsVideo reports whether the MIME type is a servable video
func IsVideo(mimeType string) bool {
	mimeType = NormalizeMimeType(mimeType)
	_, known := mediaExtensions[mimeType]
	return known && strings.HasPrefix(mimeType, "video/")
}

// ExtensionForMimeType returns the storage extension, or "" for types that are not served
func ExtensionForMimeType(mimeType string) string {
	return mediaExtensions[NormalizeMimeType(mimeType)]
}

// MimeTypeForName returns the Content-Type a stored blob is served with.
// Unknown extensions are served as application/octet-stream.
func MimeTypeForName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	for mimeType, known := range mediaExtensions {
		if known == ext {
			return mimeType
		}
	}
	return "application/octet-stream"
}
