package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bobabar/api/internal/enum"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Catalog is the seed file layout. Order in the file is display order.
type Catalog struct {
	OptionGroups []OptionGroup `yaml:"optionGroups"`
	Categories   []Category    `yaml:"categories"`
}

type OptionGroup struct {
	Name          string   `yaml:"name"`
	SelectionType string   `yaml:"selectionType"`
	Required      bool     `yaml:"required"`
	Options       []Option `yaml:"options"`
}

type Option struct {
	Label      string `yaml:"label"`
	PriceDelta Price  `yaml:"priceDelta"`
}

type Category struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

type Item struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	BasePrice    Price    `yaml:"basePrice"`
	ImageURL     string   `yaml:"imageUrl"`
	OptionGroups []string `yaml:"optionGroups"`
}

// Price reads quoted or bare YAML numbers without going through float64.
type Price struct {
	decimal.Decimal
}

func (p *Price) UnmarshalYAML(node *yaml.Node) error {
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q", node.Line, node.Value)
	}
	p.Decimal = d
	return nil
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	groups := make(map[string]bool, len(c.OptionGroups))
	for _, g := range c.OptionGroups {
		if g.Name == "" {
			return errors.New("option group without name")
		}
		if groups[g.Name] {
			return fmt.Errorf("duplicate option group %q", g.Name)
		}
		groups[g.Name] = true
		if !enum.IsSelectionType(g.SelectionType) {
			return fmt.Errorf("option group %q: selectionType must be single or multi", g.Name)
		}
		labels := make(map[string]bool, len(g.Options))
		for _, o := range g.Options {
			if o.Label == "" || labels[o.Label] {
				return fmt.Errorf("option group %q: empty or duplicate option label %q", g.Name, o.Label)
			}
			labels[o.Label] = true
		}
	}

	categories := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" || categories[cat.Name] {
			return fmt.Errorf("empty or duplicate category %q", cat.Name)
		}
		categories[cat.Name] = true
		for _, it := range cat.Items {
			if it.Name == "" {
				return fmt.Errorf("category %q: item without name", cat.Name)
			}
			if it.BasePrice.IsNegative() {
				return fmt.Errorf("item %q: basePrice must not be negative", it.Name)
			}
			for _, name := range it.OptionGroups {
				if !groups[name] {
					return fmt.Errorf("item %q: unknown option group %q", it.Name, name)
				}
			}
		}
	}
	return nil
}
