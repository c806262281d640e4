package dialects

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Endpoint joins a base URL and a path, tolerating trailing slashes.
func Endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// BearerHeaders is the default header builder: Bearer auth plus JSON
// content type.
func BearerHeaders(r *http.Request, apiKey string) {
	r.Header.Set("Authorization", "Bearer "+apiKey)
	r.Header.Set("Content-Type", "application/json")
}

// DataURI encodes image bytes as a base64 data URI tagged with the declared
// mime type.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
