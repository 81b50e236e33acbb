package exercise

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedExercise = errors.New("unsupported exercise")

//go:embed profiles.yaml
var defaultProfilesYAML []byte

type profilesFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// Registry resolves exercise identifiers to profiles.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	profiles []*Profile
	byID     map[string]*Profile
}

func NewRegistry(profiles []Profile) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, errors.New("no exercise profiles")
	}

	r := &Registry{
		byID: make(map[string]*Profile),
	}
	for i := range profiles {
		p := profiles[i]
		p.MaxScore = MaxScore
		if err := p.Validate(); err != nil {
			return nil, err
		}

		if _, ok := r.byID[NormalizeID(p.Key)]; ok {
			return nil, fmt.Errorf("duplicate profile key [%s]", p.Key)
		}

		ids := append([]string{p.Key}, p.Synonyms...)
		for _, id := range ids {
			nid := NormalizeID(id)
			if nid == "" {
				continue
			}
			if existing, ok := r.byID[nid]; ok && existing.Key != p.Key {
				return nil, fmt.Errorf("identifier [%s] used by both %s and %s", id, existing.Key, p.Key)
			}
			r.byID[nid] = &p
		}
		r.profiles = append(r.profiles, &p)
	}

	return r, nil
}

// LoadRegistry parses a YAML profiles document.
func LoadRegistry(data []byte) (*Registry, error) {
	var pf profilesFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("unmarshal profiles: %w", err)
	}
	return NewRegistry(pf.Profiles)
}

// LoadRegistryFile loads profiles from path, or the built-in ones if path is empty.
func LoadRegistryFile(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	return LoadRegistry(data)
}

// DefaultRegistry holds the built-in squat, push-up and pull-up profiles.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(defaultProfilesYAML)
}

// Lookup matches id case-insensitively against profile keys and synonyms.
func (r *Registry) Lookup(id string) (*Profile, error) {
	p, ok := r.byID[NormalizeID(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExercise, id)
	}
	return p, nil
}

// Profiles returns all profiles in declaration order.
func (r *Registry) Profiles() []*Profile {
	return r.profiles
}

// NormalizeID lowercases id, strips accents and drops separators,
// so "Push-Up", "push up" and "pushup" are the same identifier.
func NormalizeID(id string) string {
	// a transform.Chain keeps state, so it can't be shared
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, strings.TrimSpace(id))
	if err == nil {
		id = stripped
	}
	id = strings.ToLower(id)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '.':
			return -1
		}
		return r
	}, id)
}
