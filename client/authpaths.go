package client

import "strings"

// authPathTemplates are the route templates of the endpoints that issue or
// revoke credentials. A 401 from one of these is a normal validation
// outcome, not an expired session, so they must never enter the
// refresh/retry path. Segments starting with ':' match any single
// non-empty path segment.
var authPathTemplates = []string{
	"/auth/login",
	"/auth/register",
	"/auth/register/:invite",
	"/auth/token",
	"/auth/refresh",
	"/auth/logout",
	"/auth/federated/:provider",
}

// IsAuthPath reports whether the request path addresses one of the
// authentication endpoints. Matching is anchored template matching over
// whole path segments, not substring containment, so business routes that
// merely embed an auth-looking fragment (say /api/reports/login-audit or
// /invoices/auth/refresh) are not misclassified.
func IsAuthPath(path string) bool {
	segments := splitPath(path)
	if len(segments) == 0 {
		return false
	}
	for _, template := range authPathTemplates {
		if matchTemplate(splitPath(template), segments) {
			return true
		}
	}
	return false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// matchTemplate compares a template segment list against a concrete path
// segment list. Both must have the same length; a ':' segment matches any
// single non-empty segment.
func matchTemplate(template, segments []string) bool {
	if len(template) != len(segments) {
		return false
	}
	for i, part := range template {
		if strings.HasPrefix(part, ":") {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if part != segments[i] {
			return false
		}
	}
	return true
}
