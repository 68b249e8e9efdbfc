// Package pathnorm implements the single path-normalization rule shared by
// the deep and shallow indexes: backslashes become forward slashes, a
// leading "./" is stripped, and duplicate separators collapse.
package pathnorm

import "strings"

// Normalize rewrites p per the project-relative-path convention.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimPrefix(p, "./")
	return p
}
