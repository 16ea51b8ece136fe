// Package catalog loads the static card-template table once at process
// start and expands it into the full pool of LootCard instances a game's
// Board is dealt from. The CORE never re-reads or mutates the catalogue
// after load; any read/parse failure at startup is fatal.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cardtable/arena/internal/v1/card"
)

// Source is the external collaborator the CORE depends on for card
// templates. Only FileSource is used in production; StaticSource exists so
// engine/lobby/game tests don't need a filesystem fixture.
type Source interface {
	LoadTemplates() ([]*card.Template, error)
}

// FileSource reads a JSON array of card-template records from disk.
type FileSource struct {
	Path string
}

// NewFileSource returns a Source backed by the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// LoadTemplates reads and parses the catalogue file. Any error here is
// meant to be treated as fatal by the caller (cmd/server) — there is no
// recoverable CORE path for a missing or malformed catalogue.
func (s *FileSource) LoadTemplates() ([]*card.Template, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", s.Path, err)
	}

	var templates []*card.Template
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", s.Path, err)
	}
	for _, t := range templates {
		if t.Count <= 0 {
			return nil, fmt.Errorf("catalog: template %s has non-positive count %d", t.ID, t.Count)
		}
	}
	return templates, nil
}

// StaticSource supplies an in-memory template list, for tests.
type StaticSource struct {
	Templates []*card.Template
}

// LoadTemplates returns the in-memory template list.
func (s *StaticSource) LoadTemplates() ([]*card.Template, error) {
	return s.Templates, nil
}

// Catalogue is the expanded, immutable pool of card instances a fresh Board
// is dealt from. It is safe for concurrent read-only use by any number of
// games.
type Catalogue struct {
	templates []*card.Template
	instances []*card.LootCard
}

// Load builds a Catalogue from a Source, expanding each template's Count
// into that many distinct LootCard instances (zone unset — the caller
// assigns zones when dealing a fresh deck).
func Load(src Source) (*Catalogue, error) {
	templates, err := src.LoadTemplates()
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("catalog: empty card template table")
	}

	cat := &Catalogue{templates: templates}
	seq := 0
	for _, tmpl := range templates {
		for i := 0; i < tmpl.Count; i++ {
			seq++
			cat.instances = append(cat.instances, &card.LootCard{
				EntityID: card.EntityID(fmt.Sprintf("%s-%d", tmpl.ID, seq)),
				Template: tmpl,
			})
		}
	}
	return cat, nil
}

// Size returns the total number of card instances in the catalogue.
func (c *Catalogue) Size() int {
	return len(c.instances)
}

// Instances returns a fresh copy of every card instance in the catalogue,
// safe for a caller to shuffle and deal without mutating the catalogue's own
// backing array.
func (c *Catalogue) Instances() []*card.LootCard {
	out := make([]*card.LootCard, len(c.instances))
	for i, inst := range c.instances {
		cp := *inst
		out[i] = &cp
	}
	return out
}
