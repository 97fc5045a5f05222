// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     textproc
// Description: Personal dictionary and edit rules, persisted as YAML
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package textproc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Entry is one ordered substring replacement
type Entry struct {
	ID          string `yaml:"id"`
	Original    string `yaml:"original"`
	Replacement string `yaml:"replacement"`
	Enabled     bool   `yaml:"enabled"`
}

// EditRule is a free-form instruction appended to the generation prompt
type EditRule struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Enabled     bool   `yaml:"enabled"`
}

const (
	dictionaryFile = "dictionary.yaml"
	editRulesFile  = "edit_rules.yaml"
)

// Dictionary holds user-defined replacements and edit rules. Entries
// are applied in list order, so a later entry sees the output of an
// earlier one.
type Dictionary struct {
	mu      sync.RWMutex
	dir     string
	entries []Entry
	rules   []EditRule
}

// LoadDictionary reads the dictionary files from dir, creating the
// directory when missing. Missing files yield an empty dictionary.
func LoadDictionary(dir string) (*Dictionary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dictionary dir: %w", err)
	}

	d := &Dictionary{dir: dir}

	if err := loadYAML(filepath.Join(dir, dictionaryFile), &d.entries); err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	if err := loadYAML(filepath.Join(dir, editRulesFile), &d.rules); err != nil {
		return nil, fmt.Errorf("failed to load edit rules: %w", err)
	}
	return d, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// Apply performs all enabled replacements in order
func (d *Dictionary) Apply(text string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := text
	for _, e := range d.entries {
		if !e.Enabled || e.Original == "" {
			continue
		}
		result = strings.ReplaceAll(result, e.Original, e.Replacement)
	}
	return result
}

// ActiveRules returns enabled edit rule descriptions, one per line
func (d *Dictionary) ActiveRules() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var lines []string
	for _, r := range d.rules {
		if r.Enabled {
			lines = append(lines, r.Description)
		}
	}
	return strings.Join(lines, "\n")
}

// Entries returns a copy of the replacement entries
func (d *Dictionary) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Rules returns a copy of the edit rules
func (d *Dictionary) Rules() []EditRule {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]EditRule, len(d.rules))
	copy(out, d.rules)
	return out
}

// AddEntry appends a replacement and persists the dictionary
func (d *Dictionary) AddEntry(original, replacement string) error {
	d.mu.Lock()
	d.entries = append(d.entries, Entry{
		ID:          uuid.New().String(),
		Original:    original,
		Replacement: replacement,
		Enabled:     true,
	})
	d.mu.Unlock()
	return d.Save()
}

// RemoveEntry deletes the entry with the given ID and persists
func (d *Dictionary) RemoveEntry(id string) error {
	d.mu.Lock()
	for i, e := range d.entries {
		if e.ID == id {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	return d.Save()
}

// AddRule appends an edit rule and persists
func (d *Dictionary) AddRule(description string) error {
	d.mu.Lock()
	d.rules = append(d.rules, EditRule{
		ID:          uuid.New().String(),
		Description: description,
		Enabled:     true,
	})
	d.mu.Unlock()
	return d.Save()
}

// RemoveRule deletes the rule with the given ID and persists
func (d *Dictionary) RemoveRule(id string) error {
	d.mu.Lock()
	for i, r := range d.rules {
		if r.ID == id {
			d.rules = append(d.rules[:i], d.rules[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	return d.Save()
}

// Save writes both dictionary files
func (d *Dictionary) Save() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := saveYAML(filepath.Join(d.dir, dictionaryFile), d.entries); err != nil {
		return fmt.Errorf("failed to save dictionary: %w", err)
	}
	if err := saveYAML(filepath.Join(d.dir, editRulesFile), d.rules); err != nil {
		return fmt.Errorf("failed to save edit rules: %w", err)
	}
	return nil
}

func saveYAML(path string, in interface{}) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
