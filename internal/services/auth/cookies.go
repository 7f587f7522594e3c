package auth

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/ternarybob/hmebridge/internal/models"
)

// BuildCookieHeader parses a serialized cookie blob (JSON array of
// name/value pairs) and joins the pairs whose names appear in keys as
// "name=value; name=value", preserving their relative order. The result is
// empty when none of the required names are present - the caller decides
// whether that is fatal.
func BuildCookieHeader(blob string, keys []string) (string, error) {
	var cookies []models.CookiePair
	if err := json.Unmarshal([]byte(blob), &cookies); err != nil {
		return "", err
	}

	parts := make([]string, 0, len(keys))
	for _, cookie := range cookies {
		if slices.Contains(keys, cookie.Name) {
			parts = append(parts, cookie.Name+"="+cookie.Value)
		}
	}

	return strings.Join(parts, "; "), nil
}
