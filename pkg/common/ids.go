package common

import "strings"

// SourcePrefix is the URL prefix OpenAlex puts in front of every entity id.
const SourcePrefix = "https://openalex.org/"

// NormalizeID strips SourcePrefix from an OpenAlex id. Ids without the prefix
// are returned unchanged (apart from surrounding whitespace), so the function
// is idempotent.
func NormalizeID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), SourcePrefix)
}

// NormalizeIDs normalizes every id and drops empty values and duplicates,
// keeping the first occurrence order.
func NormalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := NormalizeID(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
