package homepage

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
)

// BookmarkRecords flattens bookmarks.yaml. The bookmark name becomes the
// title (abbr when the name is blank) and the group name becomes a tag.
// Entries without href are kept with an empty URL so imports count them.
func BookmarkRecords(cfg BookmarksConfig) []domain.Record {
	records := make([]domain.Record, 0)

	for _, group := range cfg {
		for _, groupName := range sortedKeys(group) {
			for _, item := range group[groupName] {
				for _, name := range sortedKeys(item) {
					entries := item[name]
					if len(entries) == 0 {
						continue
					}
					entry := entries[0] // Homepage only uses the first entry

					title := strings.TrimSpace(name)
					if title == "" {
						title = entry.Abbr
					}
					records = append(records, domain.Record{
						URL:   strings.TrimSpace(entry.Href),
						Title: title,
						Notes: entry.Description,
						Tags:  groupTags(groupName),
					})
				}
			}
		}
	}

	return records
}

// ServiceRecords flattens services.yaml: service name as title, description
// as notes, group name as tag.
func ServiceRecords(cfg ServicesConfig) []domain.Record {
	records := make([]domain.Record, 0)

	for _, group := range cfg {
		for _, groupName := range sortedKeys(group) {
			for _, item := range group[groupName] {
				for _, name := range sortedKeys(item) {
					props := item[name]
					records = append(records, domain.Record{
						URL:   strings.TrimSpace(props.Href),
						Title: strings.TrimSpace(name),
						Notes: props.Description,
						Tags:  groupTags(groupName),
					})
				}
			}
		}
	}

	return records
}

func groupTags(group string) []string {
	if g := strings.TrimSpace(group); g != "" {
		return []string{g}
	}
	return []string{}
}

// sortedKeys gives a stable order to YAML maps, which usually hold one key.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
