// Package catalog loads the static reference data the wizard offers as choices:
// Seoul districts, the industry taxonomy, business goals, vision tags and budget presets.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// BudgetPreset is a predefined capital range.
type BudgetPreset struct {
	ID     string `yaml:"id" json:"id"`
	Label  string `yaml:"label" json:"label"`
	Amount int64  `yaml:"amount" json:"amount"`
}

// Option is a selectable choice with a stable id.
type Option struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// IndustryDetail is a concrete business format inside a category.
type IndustryDetail struct {
	Name string   `yaml:"name" json:"name"`
	Tags []string `yaml:"tags" json:"tags"`
}

// Industry is one top-level food-service category.
type Industry struct {
	Category string           `yaml:"category" json:"category"`
	Details  []IndustryDetail `yaml:"details" json:"details"`
}

// Catalog is the full reference data set.
type Catalog struct {
	Districts     []string       `yaml:"districts" json:"districts"`
	MBTI          []string       `yaml:"mbti" json:"mbti"`
	BudgetPresets []BudgetPreset `yaml:"budget_presets" json:"budget_presets"`
	BusinessGoals []Option       `yaml:"business_goals" json:"business_goals"`
	VisionTags    []Option       `yaml:"vision_tags" json:"vision_tags"`
	Industries    []Industry     `yaml:"industries" json:"industries"`
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the catalog from path, or returns the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded catalog. The embedded file is part of the build,
// so a parse failure is a programming error.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("catalog: embedded catalog is invalid: " + err.Error())
	}
	return c
}

func (c *Catalog) validate() error {
	if len(c.Districts) == 0 {
		return fmt.Errorf("catalog: no districts")
	}
	if len(c.Industries) == 0 {
		return fmt.Errorf("catalog: no industries")
	}
	if len(c.BusinessGoals) == 0 {
		return fmt.Errorf("catalog: no business goals")
	}
	seen := make(map[string]bool, len(c.Industries))
	for _, ind := range c.Industries {
		if ind.Category == "" {
			return fmt.Errorf("catalog: industry with empty category")
		}
		if seen[ind.Category] {
			return fmt.Errorf("catalog: duplicate industry category %q", ind.Category)
		}
		seen[ind.Category] = true
	}
	return nil
}

// HasDistrict reports whether name is a known district.
func (c *Catalog) HasDistrict(name string) bool {
	return slices.Contains(c.Districts, name)
}

// IsMBTI reports whether code is one of the sixteen MBTI types.
func (c *Catalog) IsMBTI(code string) bool {
	return slices.Contains(c.MBTI, code)
}

// Industry returns the category with the given name.
func (c *Catalog) Industry(category string) (Industry, bool) {
	for _, ind := range c.Industries {
		if ind.Category == category {
			return ind, true
		}
	}
	return Industry{}, false
}

// HasDetail reports whether name is one of the category's business formats.
func (c *Catalog) HasDetail(category, name string) bool {
	ind, ok := c.Industry(category)
	if !ok {
		return false
	}
	return slices.ContainsFunc(ind.Details, func(d IndustryDetail) bool { return d.Name == name })
}

// ConceptTags returns the distinct tags of a category's details, in first-seen order.
func (c *Catalog) ConceptTags(category string) []string {
	ind, ok := c.Industry(category)
	if !ok {
		return nil
	}
	var tags []string
	for _, d := range ind.Details {
		for _, t := range d.Tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// BusinessGoal returns the goal with the given id.
func (c *Catalog) BusinessGoal(id string) (Option, bool) {
	for _, g := range c.BusinessGoals {
		if g.ID == id {
			return g, true
		}
	}
	return Option{}, false
}

// BudgetPreset returns the preset with the given id.
func (c *Catalog) BudgetPreset(id string) (BudgetPreset, bool) {
	for _, p := range c.BudgetPresets {
		if p.ID == id {
			return p, true
		}
	}
	return BudgetPreset{}, false
}
