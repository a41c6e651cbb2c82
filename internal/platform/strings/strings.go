// Package strings provides small string helpers shared across services
package strings

// Deref returns "" if ps is nil, else *ps
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// Ptr returns a pointer to s, or nil if s is empty
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IfEmpty returns def when v has no elements
func IfEmpty(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
