// internal/domain/product/image.go
package product

import (
	"strings"
)

// ResolveImageURL maps a backend-relative image path to an absolute URL.
// Absolute http(s) and protocol-relative URLs are returned as is.
func ResolveImageURL(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(path, "//") {
		return path
	}

	if baseURL == "" {
		return path
	}

	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
