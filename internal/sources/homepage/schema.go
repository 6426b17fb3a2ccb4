package homepage

// BookmarksConfig is the root of bookmarks.yaml.
// The YAML structure is: - GroupName: [ - BookmarkName: [{ abbr, href, description }] ]
// Each bookmark name maps to a list holding a single entry.
type BookmarksConfig []map[string][]map[string][]BookmarkEntry

// BookmarkEntry is a single bookmark in bookmarks.yaml
type BookmarkEntry struct {
	Abbr        string `yaml:"abbr,omitempty"`
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ServicesConfig is the root of services.yaml.
// Homepage uses dynamic keys, so we parse as []map[string][]map[string]ServiceProps
type ServicesConfig []map[string][]map[string]ServiceProps

// ServiceProps contains the service properties used for import.
// Widgets and monitors are ignored.
type ServiceProps struct {
	Href        string `yaml:"href"`
	Icon        string `yaml:"icon,omitempty"`
	Description string `yaml:"description,omitempty"`
}
