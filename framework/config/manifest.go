package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-container/framework/container"
)

// Manifest declares container registrations in YAML, so wiring between
// classes defined in code can change without a rebuild.
//
//	bindings:
//	  - abstract: Transport
//	    concrete: SmtpTransport
//	    shared: true
//	aliases:
//	  mailer: Mailer        # alias: abstract
//	tags:
//	  reports: [CpuReport, MemoryReport]
//	contextual:
//	  - when: [PhotoController]
//	    needs: Filesystem
//	    give: LocalFilesystem
//	  - when: [PhotoController]
//	    needs: $path
//	    value: /tmp/photos
type Manifest struct {
	Bindings   []BindingSpec       `yaml:"bindings"`
	Aliases    map[string]string   `yaml:"aliases"`
	Tags       map[string][]string `yaml:"tags"`
	Contextual []ContextualSpec    `yaml:"contextual"`
}

// BindingSpec binds Abstract to Concrete, or to itself when Concrete is empty.
type BindingSpec struct {
	Abstract string `yaml:"abstract"`
	Concrete string `yaml:"concrete"`
	Shared   bool   `yaml:"shared"`
}

// ContextualSpec is one When/Needs pair. Exactly one of Give, Value and
// Tagged must be set.
type ContextualSpec struct {
	When   []string `yaml:"when"`
	Needs  string   `yaml:"needs"`
	Give   string   `yaml:"give"`
	Value  any      `yaml:"value"`
	Tagged string   `yaml:"tagged"`
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("config: manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes a manifest. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate reports every malformed entry at once.
func (m *Manifest) Validate() error {
	var errs []error
	for i, b := range m.Bindings {
		if b.Abstract == "" {
			errs = append(errs, fmt.Errorf("bindings[%d]: abstract is required", i))
		}
	}
	for alias, abstract := range m.Aliases {
		if alias == "" || abstract == "" {
			errs = append(errs, fmt.Errorf("aliases: %q -> %q: both names are required", alias, abstract))
		}
	}
	for i, cs := range m.Contextual {
		if len(cs.When) == 0 {
			errs = append(errs, fmt.Errorf("contextual[%d]: when is required", i))
		}
		if cs.Needs == "" {
			errs = append(errs, fmt.Errorf("contextual[%d]: needs is required", i))
		}
		set := 0
		for _, ok := range []bool{cs.Give != "", cs.Value != nil, cs.Tagged != ""} {
			if ok {
				set++
			}
		}
		if set != 1 {
			errs = append(errs, fmt.Errorf("contextual[%d]: exactly one of give, value, tagged is required", i))
		}
	}
	return errors.Join(errs...)
}

// Apply registers the manifest into c: bindings, then aliases, tags and
// contextual bindings. Map entries are applied in sorted key order.
func (m *Manifest) Apply(c *container.Container) error {
	for _, b := range m.Bindings {
		if b.Concrete == "" || b.Concrete == b.Abstract {
			if b.Shared {
				c.Singleton(b.Abstract, nil)
			} else {
				c.Bind(b.Abstract, nil)
			}
			continue
		}
		c.BindTo(b.Abstract, b.Concrete, b.Shared)
	}

	var errs []error
	for _, alias := range slices.Sorted(maps.Keys(m.Aliases)) {
		if err := c.Alias(m.Aliases[alias], alias); err != nil {
			errs = append(errs, err)
		}
	}

	for _, tag := range slices.Sorted(maps.Keys(m.Tags)) {
		c.Tag(m.Tags[tag], tag)
	}

	for _, cs := range m.Contextual {
		needs := c.When(cs.When...).Needs(cs.Needs)
		switch {
		case cs.Give != "":
			needs.GiveClass(cs.Give)
		case cs.Tagged != "":
			needs.GiveTagged(cs.Tagged)
		default:
			needs.GiveValue(cs.Value)
		}
	}
	return errors.Join(errs...)
}
