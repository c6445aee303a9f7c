package rowstore

import "strings"

// JSONPathExpr builds a `json_extract(<column>, '$."<key>"')` expression
// for an attribute key, treating the whole (possibly dotted) key as a
// single quoted path segment and escaping backslashes and quotes, per
// spec.md §4.E. Dotted keys like "duration.total_ms" are stored exactly
// as received in attributes_json, not nested — so the path segment must
// match the literal key, not walk through nested objects.
func JSONPathExpr(column, key string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(key)
	return `json_extract(` + column + `, '$."` + escaped + `"')`
}
