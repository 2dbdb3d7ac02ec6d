// Package filters holds the closed enumerations behind SearchFilters:
// the language list, the quality tag set, and the multi-audio keyword
// variants. A built-in catalog ships with the binary; deployments can
// override it with a YAML file.
package filters

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mediabot/internal/domain"
)

// Language is one entry of the closed language enumeration.
type Language struct {
	Code string `yaml:"code"` // 2-letter code, uppercase
	Name string `yaml:"name"` // full name as it appears in release titles
}

// Catalog is the set of recognized filter values.
type Catalog struct {
	Languages  []Language `yaml:"languages"`
	Qualities  []string   `yaml:"qualities"`
	MultiAudio []string   `yaml:"multiAudio"` // keyword variants marking multi-audio releases
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Languages: []Language{
			{Code: "EN", Name: "English"},
			{Code: "HI", Name: "Hindi"},
			{Code: "TA", Name: "Tamil"},
			{Code: "TE", Name: "Telugu"},
			{Code: "ML", Name: "Malayalam"},
			{Code: "KN", Name: "Kannada"},
			{Code: "BN", Name: "Bengali"},
			{Code: "MR", Name: "Marathi"},
			{Code: "PA", Name: "Punjabi"},
			{Code: "KO", Name: "Korean"},
			{Code: "JA", Name: "Japanese"},
			{Code: "FR", Name: "French"},
			{Code: "ES", Name: "Spanish"},
		},
		Qualities: []string{"360p", "480p", "720p", "1080p", "2160p", "HDRip", "WEB-DL", "BluRay", "CAMRip"},
		MultiAudio: []string{
			"dual", "dual audio", "multi", "multi audio", "multi-audio", "eng-hin", "hin-eng",
		},
	}
}

// Load reads a catalog override from a YAML file. A missing path returns
// the built-in catalog; a present but unreadable or invalid file is an
// error so a typo does not silently drop every filter.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filter catalog %s: %w", path, err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse filter catalog %s: %w", path, err)
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("filter catalog %s: %w", path, err)
	}
	logger.Info("filter catalog loaded",
		"path", path,
		"languages", len(cat.Languages),
		"qualities", len(cat.Qualities),
	)
	return &cat, nil
}

func (c *Catalog) validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("no languages defined")
	}
	seen := make(map[string]bool, len(c.Languages))
	for _, l := range c.Languages {
		code := strings.ToUpper(l.Code)
		if len(code) != 2 {
			return fmt.Errorf("language code %q must be 2 letters", l.Code)
		}
		if code == domain.LangMulti {
			return fmt.Errorf("language code %q is reserved", domain.LangMulti)
		}
		if seen[code] {
			return fmt.Errorf("duplicate language code %q", l.Code)
		}
		seen[code] = true
	}
	if len(c.Qualities) == 0 {
		return fmt.Errorf("no qualities defined")
	}
	if len(c.MultiAudio) == 0 {
		return fmt.Errorf("no multi-audio variants defined")
	}
	return nil
}

// Language resolves a code (case-insensitive) against the enumeration.
// The LangMulti sentinel is always valid and resolves to a synthetic entry.
func (c *Catalog) Language(code string) (Language, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == domain.LangMulti {
		return Language{Code: domain.LangMulti, Name: "Multi Audio"}, true
	}
	for _, l := range c.Languages {
		if strings.ToUpper(l.Code) == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsQuality reports whether tag is in the closed quality set
// (case-insensitive).
func (c *Catalog) IsQuality(tag string) bool {
	for _, q := range c.Qualities {
		if strings.EqualFold(q, tag) {
			return true
		}
	}
	return false
}

// IsYear reports whether s looks like a 4-digit release year.
func IsYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s[0] == '1' || s[0] == '2'
}
