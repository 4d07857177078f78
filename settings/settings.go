// Package settings holds the user's filtering preferences and the key/value
// stores they persist in.
package settings

import (
	"log/slog"
	"slices"
)

// Storage keys.
const (
	KeyLanguages       = "languages"
	KeyIgnoredSections = "ignoredSections"
)

// Store is a key/value settings store. Get reports whether the key was
// present; values are JSON encoded by the implementations.
type Store interface {
	Get(key string, v any) (bool, error)
	Set(key string, v any) error
}

// Section is one toggleable section name.
type Section struct {
	Name    string `json:"name"`
	Ignored bool   `json:"ignored"`
}

// Filters is a snapshot of the filtering configuration. Languages are in
// priority order; the first one is selected by default.
type Filters struct {
	Languages []string  `json:"languages"`
	Sections  []Section `json:"sections"`
}

// DefaultLanguages is used when no languages are stored.
var DefaultLanguages = []string{"English"}

// DefaultSections is used when no section preferences are stored.
var DefaultSections = []Section{
	{"Etymology", false},
	{"Usage_notes", false},
	{"Trivia", false},

	{"Declension", true},
	{"Conjugation", true},
	{"Inflection", true},
	{"Mutation", true},

	{"Anagrams", true},
	{"Synonyms", true},
	{"Antonyms", true},
	{"Hypernyms", true},
	{"Hyponyms", true},
	{"Translations", true},

	{"Alternative_forms", true},
	{"Related_terms", true},
	{"Descendants", true},
	{"Derived_terms", true},
	{"See_also", true},

	{"Pronunciation", true},
	{"Gallery", true},
	{"Quotations", true},

	{"References", true},
	{"Further_reading", true},
}

// Default returns a copy of the built-in filters.
func Default() Filters {
	return Filters{
		Languages: slices.Clone(DefaultLanguages),
		Sections:  slices.Clone(DefaultSections),
	}
}

// Load reads the filters from store. A missing key or a failed read falls
// back to the built-in default for that key; defaults are never written.
func Load(store Store, log *slog.Logger) Filters {
	if log == nil {
		log = slog.Default()
	}
	f := Default()

	var langs []string
	if ok, err := store.Get(KeyLanguages, &langs); err != nil {
		log.Warn("reading languages, using defaults", "error", err)
	} else if ok {
		f.Languages = langs
	}

	var sections []Section
	if ok, err := store.Get(KeyIgnoredSections, &sections); err != nil {
		log.Warn("reading ignored sections, using defaults", "error", err)
	} else if ok {
		f.Sections = sections
	}
	return f
}

// Save writes both keys to store.
func (f Filters) Save(store Store) error {
	if err := store.Set(KeyLanguages, f.Languages); err != nil {
		return err
	}
	return store.Set(KeyIgnoredSections, f.Sections)
}

// Selected is the language lookups are restricted to, the first configured
// one. Empty means every language is shown.
func (f Filters) Selected() string {
	if len(f.Languages) == 0 {
		return ""
	}
	return f.Languages[0]
}

// IgnoredSections lists the ignored section names in order.
func (f Filters) IgnoredSections() []string {
	var out []string
	for _, s := range f.Sections {
		if s.Ignored {
			out = append(out, s.Name)
		}
	}
	return out
}

// AddLanguage appends a language. Empty names and duplicates are ignored.
func (f *Filters) AddLanguage(lang string) bool {
	if lang == "" || slices.Contains(f.Languages, lang) {
		return false
	}
	f.Languages = append(f.Languages, lang)
	return true
}

// RemoveLanguage removes a language, reporting whether it was present.
func (f *Filters) RemoveLanguage(lang string) bool {
	i := slices.Index(f.Languages, lang)
	if i < 0 {
		return false
	}
	f.Languages = slices.Delete(f.Languages, i, i+1)
	return true
}

// ToggleSection flips whether a section is ignored. Unknown names are
// added as ignored.
func (f *Filters) ToggleSection(name string) bool {
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			f.Sections[i].Ignored = !f.Sections[i].Ignored
			return f.Sections[i].Ignored
		}
	}
	f.Sections = append(f.Sections, Section{Name: name, Ignored: true})
	return true
}
