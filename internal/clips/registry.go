// Package clips maps free text to pre-recorded sign clips and plays them
// back one after another.
package clips

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownClip is returned when a clip ID has no registered sources.
var ErrUnknownClip = errors.New("unknown clip")

// ID identifies a pre-recorded clip.
type ID string

// Source is one encoding of a clip.
type Source struct {
	URL  string `json:"url" yaml:"url"`
	Type string `json:"type" yaml:"type"`
}

// Trigger associates a phrase with the clip it enqueues.
type Trigger struct {
	Phrase string `json:"phrase" yaml:"phrase"`
	Clip   ID     `json:"clip" yaml:"clip"`
}

// Registry is the static clip catalogue plus the ordered trigger list.
type Registry struct {
	sources  map[ID][]Source
	triggers []Trigger
}

type registryFile struct {
	Clips    map[ID][]Source `yaml:"clips"`
	Triggers []Trigger       `yaml:"triggers"`
}

const dictionaryBase = "http://sldict.korean.go.kr/multimedia/multimedia_files/convert/"

func dictionarySources(path string) []Source {
	return []Source{
		{URL: dictionaryBase + path + ".webm", Type: "video/webm"},
		{URL: dictionaryBase + path + ".mp4", Type: "video/mp4"},
		{URL: dictionaryBase + path + ".ogv", Type: "video/ogg"},
	}
}

// DefaultRegistry returns the built-in Korean sign dictionary clips.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(
		map[ID][]Source{
			"hello": dictionarySources("20191021/629456/MOV000257117_700X466"),
			"full":  dictionarySources("20191028/631916/MOV000244936_700X466"),
		},
		[]Trigger{
			{Phrase: "안녕하세요", Clip: "hello"},
			{Phrase: "배부르네요", Clip: "full"},
		},
	)
	return r
}

// NewRegistry validates that every trigger refers to a known clip.
func NewRegistry(sources map[ID][]Source, triggers []Trigger) (*Registry, error) {
	r := &Registry{
		sources:  make(map[ID][]Source, len(sources)),
		triggers: make([]Trigger, 0, len(triggers)),
	}
	for id, srcs := range sources {
		if len(srcs) == 0 {
			return nil, fmt.Errorf("clip %s has no sources", id)
		}
		r.sources[id] = append([]Source(nil), srcs...)
	}
	for i, t := range triggers {
		if t.Phrase == "" {
			return nil, fmt.Errorf("trigger %d has an empty phrase", i)
		}
		if _, ok := r.sources[t.Clip]; !ok {
			return nil, fmt.Errorf("trigger %q: %w: %s", t.Phrase, ErrUnknownClip, t.Clip)
		}
		r.triggers = append(r.triggers, t)
	}
	return r, nil
}

// LoadRegistry reads a YAML clip catalogue.
func LoadRegistry(rd io.Reader) (*Registry, error) {
	var f registryFile
	if err := yaml.NewDecoder(rd).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode clip registry: %w", err)
	}
	return NewRegistry(f.Clips, f.Triggers)
}

// Sources returns the encodings registered for id.
func (r *Registry) Sources(id ID) ([]Source, error) {
	srcs, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClip, id)
	}
	return append([]Source(nil), srcs...), nil
}

// Triggers returns the trigger list in scan order.
func (r *Registry) Triggers() []Trigger {
	return append([]Trigger(nil), r.triggers...)
}

// IDs returns all clip IDs in sorted order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
