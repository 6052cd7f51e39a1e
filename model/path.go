package model

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

const invalidKeyChars = ".$#[]/"

// ValidateKey checks a single child key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key: empty")
	}
	if strings.ContainsAny(key, invalidKeyChars) {
		return fmt.Errorf("key (%s): must not contain any of %q", key, invalidKeyChars)
	}

	return nil
}

// SplitPath splits a slash separated path into validated keys.
// Empty segments are skipped, so "/", "" and "a//b" are accepted.
func SplitPath(path string) ([]string, error) {
	keys := make([]string, 0)
	for _, key := range strings.Split(path, "/") {
		if key == "" {
			continue
		}
		if err := ValidateKey(key); err != nil {
			return nil, fmt.Errorf("path (%s): %w", path, err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// JoinPath builds a canonical path ("/" for root).
func JoinPath(keys ...string) string {
	return "/" + strings.Join(keys, "/")
}

// NewPushKey generates a unique child key.
// Keys are time ordered, so a pushed child sorts after every previously pushed sibling.
func NewPushKey() string {
	return ulid.Make().String()
}
