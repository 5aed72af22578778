package utils

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
)

func HashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

// ETag returns a strong entity tag for the JSON encoding of v.
func ETag(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`"%016x"`, HashBytes(b)), nil
}

// ETagMatches reports whether an If-None-Match header value covers etag.
// Weak validators compare equal to their strong form.
func ETagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" || etag == "" {
		return false
	}
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}
