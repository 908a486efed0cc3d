package keyvaluestore

import "path"

// MatchKey reports whether the key matches the glob pattern used by ListKeys.
// Providers without native pattern support use it to filter keys.
func MatchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)
	if err != nil {
		return false
	}

	return ok
}
