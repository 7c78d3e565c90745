package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const maxFileNameLength = 200

// BuildImageKey composes the object key for an uploaded image:
// <prefix>/<epoch-millis>_<name>. The name is reduced to its base name and NFC normalised
// so that visually identical names produce identical keys.
func BuildImageKey(prefix, fileName string, now time.Time) (string, error) {
	name, err := normalizeFileName(fileName)
	if err != nil {
		return "", err
	}
	object := fmt.Sprintf("%d_%s", now.UnixMilli(), name)

	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return object, nil
	}
	for _, segment := range strings.Split(prefix, "/") {
		if _, err := validateSegment("prefix", segment); err != nil {
			return "", err
		}
	}
	return prefix + "/" + object, nil
}

func normalizeFileName(value string) (string, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), "\\", "/")
	value = path.Base(value)
	if value == "." || value == "/" {
		value = ""
	}
	value = norm.NFC.String(value)
	value = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, value)
	if runes := []rune(value); len(runes) > maxFileNameLength {
		value = string(runes[len(runes)-maxFileNameLength:])
	}
	return validateFileName(value)
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: fileName contains invalid path characters")
	}
	if value == ".." {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}

// ContentTypeAllowed reports whether contentType matches one of the allowed patterns.
// Patterns may be exact ("image/png"), a wildcard subtype ("image/*") or "*".
func ContentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(normalized, ";"); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" || candidate == "*/*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			if strings.HasPrefix(normalized, strings.TrimSuffix(candidate, "*")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}
