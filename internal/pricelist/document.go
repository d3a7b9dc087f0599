// Package pricelist reads the YAML price lists partners publish:
//
//	shop: Acme
//	categories:
//	  - {id: 1, name: Tools}
//	goods:
//	  - name: Hammer
//	    category: 1
//	    model: H1
//	    price: 500
//	    price_rrc: 700
//	    quantity: 10
//	    parameters: {Weight: 1kg}
package pricelist

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"marketplace/internal/domain"
)

// ErrInvalid wraps every parse or validation failure of a document.
var ErrInvalid = errors.New("invalid price list")

type Document struct {
	Shop       string     `yaml:"shop"`
	Categories []Category `yaml:"categories"`
	Goods      []Good     `yaml:"goods"`
}

type Category struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type Good struct {
	ID          int64      `yaml:"id"`
	Name        string     `yaml:"name"`
	Category    int64      `yaml:"category"`
	Model       string     `yaml:"model"`
	Description string     `yaml:"description"`
	Price       int64      `yaml:"price"`
	PriceRRC    int64      `yaml:"price_rrc"`
	Quantity    int64      `yaml:"quantity"`
	Parameters  Parameters `yaml:"parameters"`

	missing []string
}

// requiredGoodKeys must be present on every good; description is optional.
var requiredGoodKeys = []string{"name", "category", "model", "price", "price_rrc", "quantity", "parameters"}

func (g *Good) UnmarshalYAML(n *yaml.Node) error {
	type plain Good
	if err := n.Decode((*plain)(g)); err != nil {
		return err
	}
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		seen[n.Content[i].Value] = true
	}
	g.missing = g.missing[:0]
	for _, k := range requiredGoodKeys {
		if !seen[k] {
			g.missing = append(g.missing, k)
		}
	}
	return nil
}

// label names a good in error messages by position and, when given, its id.
func (g Good) label(i int) string {
	if g.ID != 0 {
		return fmt.Sprintf("goods[%d] (id %d)", i, g.ID)
	}
	return fmt.Sprintf("goods[%d]", i)
}

// Param is one name/value pair; values keep their literal YAML text so
// "1kg", 15 and true all round-trip as written.
type Param struct {
	Name  string
	Value string
}

// Parameters keeps the document order of the mapping.
type Parameters []Param

func (p *Parameters) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", n.Line)
	}
	out := make(Parameters, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: parameter values must be scalars", k.Line)
		}
		out = append(out, Param{Name: k.Value, Value: v.Value})
	}
	*p = out
	return nil
}

// Parse decodes and validates a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(false)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks required keys, price bounds and that every good points at
// a category declared in the same document.
func (d *Document) Validate() error {
	if d.Shop == "" {
		return fmt.Errorf("%w: shop is required", ErrInvalid)
	}
	cats := make(map[int64]bool, len(d.Categories))
	for i, c := range d.Categories {
		if c.ID <= 0 || c.Name == "" {
			return fmt.Errorf("%w: categories[%d] needs a positive id and a name", ErrInvalid, i)
		}
		cats[c.ID] = true
	}
	for i, g := range d.Goods {
		switch {
		case len(g.missing) > 0:
			return fmt.Errorf("%w: %s is missing %s", ErrInvalid, g.label(i), strings.Join(g.missing, ", "))
		case g.Name == "":
			return fmt.Errorf("%w: %s name is required", ErrInvalid, g.label(i))
		case !cats[g.Category]:
			return fmt.Errorf("%w: %s category %d is not declared", ErrInvalid, g.label(i), g.Category)
		case g.Price < 0 || g.PriceRRC < 0 || g.Quantity < 0:
			return fmt.Errorf("%w: %s has a negative price or quantity", ErrInvalid, g.label(i))
		case g.Price > domain.MaxPrice || g.PriceRRC > domain.MaxPrice:
			return fmt.Errorf("%w: %s price is above %d", ErrInvalid, g.label(i), domain.MaxPrice)
		}
	}
	return nil
}
