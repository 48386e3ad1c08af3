package validation

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/subtrack/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared
// MIME types for invoice documents. The extraction service handles PDFs,
// images, and spreadsheet exports.
var AllowedClientContentTypes = map[string]bool{
	"application/pdf":          true,
	"image/png":                true,
	"image/jpeg":               true,
	"image/webp":               true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/octet-stream":                                          true, // Fallback, but be more cautious
	"text/html":                                                         false,
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.Split(contentType, ";")[0])
	if allowed, exists := AllowedClientContentTypes[strings.TrimSpace(normalized)]; !exists || !allowed {
		if logger.L != nil {
			logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		}
		return fmt.Errorf("client-declared file type '%s' is not allowed for invoice upload", contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature
// (magic bytes). It returns the detected content type and an error if the
// content does not look like a document we can extract from.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512) // Read first 512 bytes for MIME detection
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the extraction service gets the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	// http.DetectContentType reports xlsx as application/zip and legacy xls as
	// octet-stream, so both generic types stay allowed; extraction decides
	// later whether it can actually read the bytes.
	allowedDetectedTypes := map[string]bool{
		"application/pdf":          true,
		"image/png":                true,
		"image/jpeg":               true,
		"image/webp":               true,
		"application/zip":          true,
		"application/octet-stream": true,
	}

	if !allowedDetectedTypes[detectedContentType] {
		if logger.L != nil {
			logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType)
		}
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not consistent with an invoice document", detectedContentType)
	}

	if logger.L != nil {
		logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	}
	return detectedContentType, nil
}
