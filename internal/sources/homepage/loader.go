package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/linkvault/internal/domain"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage configuration file and turns it into import records.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for a bookmarks.yaml or services.yaml file
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// LoadBookmarks reads bookmarks.yaml and maps it to records.
func (l *Loader) LoadBookmarks() ([]domain.Record, error) {
	var cfg BookmarksConfig
	if err := l.decode(&cfg); err != nil {
		return nil, err
	}
	return BookmarkRecords(cfg), nil
}

// LoadServices reads services.yaml and maps it to records.
func (l *Loader) LoadServices() ([]domain.Record, error) {
	var cfg ServicesConfig
	if err := l.decode(&cfg); err != nil {
		return nil, err
	}
	return ServiceRecords(cfg), nil
}

func (l *Loader) decode(v any) error {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return fmt.Errorf("failed to read homepage file: %w", err)
	}
	if err := Decode(data, v); err != nil {
		return fmt.Errorf("%s: %w", l.filePath, err)
	}
	return nil
}

// Decode unmarshals Homepage YAML into v after blanking template variables.
func Decode(data []byte, v any) error {
	if err := yaml.Unmarshal(stripTemplateVariables(data), v); err != nil {
		return fmt.Errorf("failed to parse homepage yaml: %w", err)
	}
	return nil
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
