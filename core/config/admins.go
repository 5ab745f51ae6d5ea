package config

import (
	"strconv"
	"strings"
)

// ParseAdminIDs splits a comma separated id list.
// Entries that are not integers are returned in invalid and skipped.
func ParseAdminIDs(raw string) (ids []int64, invalid []string) {
	seen := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id == 0 {
			invalid = append(invalid, part)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, invalid
}
