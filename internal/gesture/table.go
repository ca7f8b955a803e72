package gesture

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// KeyDelimiter joins per-hand labels into a lookup key.
const KeyDelimiter = "|"

// ErrUnknownTable is returned when a mapping table name is not registered.
var ErrUnknownTable = errors.New("unknown mapping table")

//go:embed tables/*.yaml
var tablesFS embed.FS

// Entry is a single mapping from an ordered hand label combination to a token.
type Entry struct {
	Hands []string `yaml:"hands" json:"hands"`
	Token Token    `yaml:"token" json:"token"`
}

// Key returns the lookup key for the entry.
func (e Entry) Key() string {
	return Key(e.Hands...)
}

// Key joins labels in the given order with KeyDelimiter.
func Key(labels ...string) string {
	return strings.Join(labels, KeyDelimiter)
}

// MappingTable is a read-only lookup from a joined label key to a token.
// It is safe for concurrent use because it is never mutated after construction.
type MappingTable struct {
	name        string
	description string
	locale      string
	entries     []Entry
	index       map[string]Token
}

// tableFile is the on-disk YAML representation of a mapping table.
type tableFile struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Locale      string  `yaml:"locale"`
	Mappings    []Entry `yaml:"mappings"`
}

// NewMappingTable builds an immutable table from entries.
// Entries are validated: each must name between one and MaxHands labels,
// carry a non-empty token, and no key may appear twice.
func NewMappingTable(name, description, locale string, entries []Entry) (*MappingTable, error) {
	if name == "" {
		return nil, fmt.Errorf("mapping table name is required")
	}

	t := &MappingTable{
		name:        name,
		description: description,
		locale:      locale,
		entries:     make([]Entry, 0, len(entries)),
		index:       make(map[string]Token, len(entries)),
	}

	for i, e := range entries {
		if len(e.Hands) == 0 || len(e.Hands) > MaxHands {
			return nil, fmt.Errorf("table %s: entry %d has %d hands, want 1..%d", name, i, len(e.Hands), MaxHands)
		}
		for _, h := range e.Hands {
			if h == "" || strings.Contains(h, KeyDelimiter) {
				return nil, fmt.Errorf("table %s: entry %d has invalid label %q", name, i, h)
			}
		}
		if e.Token.IsEmpty() {
			return nil, fmt.Errorf("table %s: entry %d has no token", name, i)
		}

		key := e.Key()
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("table %s: duplicate key %q", name, key)
		}

		hands := make([]string, len(e.Hands))
		copy(hands, e.Hands)
		t.entries = append(t.entries, Entry{Hands: hands, Token: e.Token})
		t.index[key] = e.Token
	}

	return t, nil
}

// ParseTable decodes a YAML mapping table.
func ParseTable(r io.Reader) (*MappingTable, error) {
	var f tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode mapping table: %w", err)
	}
	return NewMappingTable(f.Name, f.Description, f.Locale, f.Mappings)
}

// MarshalYAML encodes the table in the same format ParseTable reads.
func (t *MappingTable) MarshalYAML() (interface{}, error) {
	return tableFile{
		Name:        t.name,
		Description: t.description,
		Locale:      t.locale,
		Mappings:    t.Entries(),
	}, nil
}

// Name returns the table name.
func (t *MappingTable) Name() string { return t.name }

// Description returns the human-readable description.
func (t *MappingTable) Description() string { return t.description }

// Locale returns the locale tokens in this table are written in.
func (t *MappingTable) Locale() string { return t.locale }

// Len returns the number of entries.
func (t *MappingTable) Len() int { return len(t.entries) }

// Lookup returns the token registered for key.
func (t *MappingTable) Lookup(key string) (Token, bool) {
	tok, ok := t.index[key]
	return tok, ok
}

// Entries returns a copy of the entries in declaration order.
func (t *MappingTable) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		hands := make([]string, len(e.Hands))
		copy(hands, e.Hands)
		out[i] = Entry{Hands: hands, Token: e.Token}
	}
	return out
}

// Registry holds named mapping tables.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*MappingTable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*MappingTable)}
}

// Register adds or replaces a table.
func (r *Registry) Register(t *MappingTable) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.Name()] = t
}

// Remove deletes a table by name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, name)
}

// Get returns the named table or ErrUnknownTable.
func (r *Registry) Get(name string) (*MappingTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// Names returns registered table names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry preloaded with the built-in tables.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadFS(tablesFS, "tables"); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFS registers every *.yaml table found in dir of fsys.
func (r *Registry) LoadFS(fsys fs.FS, dir string) error {
	paths, err := fs.Glob(fsys, dir+"/*.yaml")
	if err != nil {
		return err
	}
	for _, p := range paths {
		f, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		t, err := ParseTable(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		r.Register(t)
	}
	return nil
}
