package service

import "strings"

// cleanText trims user text and drops bytes the store cannot hold (invalid
// UTF-8, NUL). Content is otherwise kept as written; responses are JSON and
// encoding/json escapes markup characters.
func cleanText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// cleanTags cleans tag names and drops the empty ones. Order is kept;
// duplicates are left for the store to collapse.
func cleanTags(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = cleanText(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
