// ABOUTME: Immutable RoleTemplate catalog: slot -> default capability grants.
// ABOUTME: Loaded once at startup from YAML or the role_templates table; exposes read-only accessors.
package permission

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// Template is the global default grant set for one slot.
type Template struct {
	Slot Slot
	// Name is the suggested display label for the slot, used when an
	// organization has not set its own.
	Name   string
	Grants map[Capability]bool
}

// Grant is one (slot, capability) row of the catalog.
type Grant struct {
	Slot       Slot
	Capability Capability
	Granted    bool
}

// Catalog maps every slot to its template. A Catalog has no mutating methods
// and every accessor returns a copy, so one instance can be shared by any
// number of goroutines for the life of the process.
type Catalog struct {
	templates [MaxSlot + 1]Template
}

// NewCatalog builds a catalog from templates. Slots without a template get an
// empty one. Duplicate slots, out-of-range slots, and unknown capabilities are
// rejected.
func NewCatalog(templates []Template) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[Slot]bool, len(templates))
	for _, t := range templates {
		if !t.Slot.Valid() {
			return nil, fmt.Errorf("template: %w: %d", ErrSlotOutOfRange, t.Slot)
		}
		if seen[t.Slot] {
			return nil, fmt.Errorf("template: duplicate slot %d", t.Slot)
		}
		seen[t.Slot] = true
		for capability := range t.Grants {
			if !capability.Known() {
				return nil, fmt.Errorf("template slot %d: %w: %q", t.Slot, ErrUnknownCapability, capability)
			}
		}
		c.templates[t.Slot] = Template{
			Slot:   t.Slot,
			Name:   t.Name,
			Grants: maps.Clone(t.Grants),
		}
	}
	for _, s := range AllSlots() {
		if !seen[s] {
			c.templates[s] = Template{Slot: s}
		}
		if c.templates[s].Name == "" {
			c.templates[s].Name = "Role " + s.String()
		}
		if c.templates[s].Grants == nil {
			c.templates[s].Grants = map[Capability]bool{}
		}
	}
	return c, nil
}

// catalogDoc is the YAML shape of the catalog file.
type catalogDoc struct {
	Templates []templateDoc `yaml:"templates"`
}

type templateDoc struct {
	Slot  int          `yaml:"slot"`
	Name  string       `yaml:"name"`
	Allow []Capability `yaml:"allow"`
	Deny  []Capability `yaml:"deny,omitempty"`
}

// ParseCatalog decodes a YAML catalog document. Unknown fields are errors.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc catalogDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	templates := make([]Template, 0, len(doc.Templates))
	for _, td := range doc.Templates {
		grants := make(map[Capability]bool, len(td.Allow)+len(td.Deny))
		for _, capability := range td.Allow {
			grants[capability] = true
		}
		for _, capability := range td.Deny {
			if grants[capability] {
				return nil, fmt.Errorf("template slot %d: %q is both allowed and denied", td.Slot, capability)
			}
			grants[capability] = false
		}
		templates = append(templates, Template{Slot: Slot(td.Slot), Name: td.Name, Grants: grants})
	}
	return NewCatalog(templates)
}

// LoadCatalogFile reads a YAML catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return ParseCatalog(f)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := ParseCatalog(bytes.NewReader(defaultTemplatesYAML))
	if err != nil {
		panic(fmt.Sprintf("permission: embedded templates.yaml is invalid: %v", err))
	}
	return c
})

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog { return defaultCatalog() }

// Granted reports whether the template for slot grants capability, and
// whether the template lists the capability at all. Unknown slots and
// capabilities are never granted or listed.
func (c *Catalog) Granted(slot Slot, capability Capability) (granted, listed bool) {
	if c == nil || !slot.Valid() {
		return false, false
	}
	granted, listed = c.templates[slot].Grants[capability]
	return granted, listed
}

// Template returns a copy of the template for slot.
func (c *Catalog) Template(slot Slot) (Template, bool) {
	if c == nil || !slot.Valid() {
		return Template{}, false
	}
	t := c.templates[slot]
	t.Grants = maps.Clone(t.Grants)
	return t, true
}

// Templates returns copies of all ten templates in slot order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, 0, MaxSlot)
	for _, s := range AllSlots() {
		t, _ := c.Template(s)
		out = append(out, t)
	}
	return out
}

// Grants flattens the catalog into rows ordered by slot, then capability.
func (c *Catalog) Grants() []Grant {
	var out []Grant
	for _, t := range c.Templates() {
		keys := slices.Sorted(maps.Keys(t.Grants))
		for _, k := range keys {
			out = append(out, Grant{Slot: t.Slot, Capability: k, Granted: t.Grants[k]})
		}
	}
	return out
}

// MarshalYAML renders the catalog in the same shape ParseCatalog reads.
func (c *Catalog) MarshalYAML() (any, error) {
	doc := catalogDoc{Templates: make([]templateDoc, 0, MaxSlot)}
	for _, t := range c.Templates() {
		td := templateDoc{Slot: int(t.Slot), Name: t.Name, Allow: []Capability{}}
		for _, k := range slices.Sorted(maps.Keys(t.Grants)) {
			if t.Grants[k] {
				td.Allow = append(td.Allow, k)
			} else {
				td.Deny = append(td.Deny, k)
			}
		}
		doc.Templates = append(doc.Templates, td)
	}
	return doc, nil
}
