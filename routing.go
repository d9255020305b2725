package arangorest

import (
	"net/url"
	"strings"
)

// globalPrefixes are server-wide endpoints that must not carry a
// /_db/<name> prefix. Matching is on whole path segments.
var globalPrefixes = []string{
	"/_api/version",
	"/_api/engine",
	"/_api/database",
	"/_api/user",
	"/_admin",
	"/_open",
}

// scopedExceptions are sub-paths of global prefixes that report on the
// selected database and are therefore database-scoped.
var scopedExceptions = []string{
	"/_api/database/current",
	"/_api/database/user",
}

// IsGlobalPath reports whether path addresses a server-global endpoint.
func IsGlobalPath(path string) bool {
	p := stripQuery(path)
	for _, ex := range scopedExceptions {
		if hasSegmentPrefix(p, ex) {
			return false
		}
	}
	for _, prefix := range globalPrefixes {
		if hasSegmentPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// resolvePath applies the database routing rule to path.
// Paths that already start with /_db/ are left untouched.
func resolvePath(path, database string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if strings.HasPrefix(path, "/_db/") || IsGlobalPath(path) {
		return path
	}
	return "/_db/" + url.PathEscape(database) + path
}

// hasSegmentPrefix reports whether path equals prefix or continues it
// with a new segment.
func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// PathEscape escapes one path segment such as a collection name or a
// document key. Resource wrappers use it to build paths.
func PathEscape(segment string) string {
	return url.PathEscape(segment)
}
