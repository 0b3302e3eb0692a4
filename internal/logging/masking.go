// Package logging builds the process logger and masks secrets before they are logged.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Redacted replaces masked values.
const Redacted = "[REDACTED]"

// SecretFields are the JSON keys whose values never reach the logs.
var SecretFields = []string{"password", "salt", "restore_key", "key", "token", "api_key"}

// MaskHeader redacts sensitive header values based on header name.
//
// Password and secret headers are fully redacted. Authorization keeps its
// scheme and the last 4 characters of the credential so requests can still be
// told apart. Other headers are returned unchanged.
func MaskHeader(name, value string) string {
	lowerName := strings.ToLower(name)

	if strings.Contains(lowerName, "password") ||
		strings.Contains(lowerName, "secret") ||
		lowerName == "cookie" || lowerName == "set-cookie" {
		return Redacted
	}

	if lowerName == "authorization" || lowerName == "x-api-key" {
		scheme, cred, found := strings.Cut(value, " ")
		if !found {
			scheme, cred = "", value
		}
		masked := "****"
		if len(cred) >= 8 {
			masked += cred[len(cred)-4:]
		}
		if scheme == "" {
			return masked
		}
		return scheme + " " + masked
	}

	return value
}

// MaskJSONBody replaces the values of the named fields, at any depth, with
// Redacted. Field names match case-insensitively. A body that is not JSON is
// returned unchanged.
func MaskJSONBody(body []byte, fields []string) []byte {
	if len(body) == 0 || len(fields) == 0 {
		return body
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	secret := make(map[string]bool, len(fields))
	for _, f := range fields {
		secret[strings.ToLower(f)] = true
	}

	out, err := json.Marshal(maskValue(data, secret))
	if err != nil {
		return body
	}
	return out
}

func maskValue(value any, secret map[string]bool) any {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			if secret[strings.ToLower(key)] {
				v[key] = Redacted
				continue
			}
			v[key] = maskValue(val, secret)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = maskValue(item, secret)
		}
		return v
	default:
		return value
	}
}

// FormatBinaryData describes binary data by size.
func FormatBinaryData(data []byte) string {
	return fmt.Sprintf("[BINARY: %d bytes]", len(data))
}
