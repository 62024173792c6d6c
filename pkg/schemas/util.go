package schemas

import "strings"

func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
