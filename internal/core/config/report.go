package config

import (
	"errors"
	"strconv"
	"strings"

	"github.com/hay-kot/criterio"
)

// Section names used by Report.
const (
	SectionFiles    = "files"
	SectionHistory  = "history"
	SectionComposer = "composer"
)

// Setting is one effective configuration value, keyed as in the YAML file.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Issue is a problem attached to a setting. Key is empty when the problem
// does not belong to a single setting.
type Issue struct {
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// Section is the validated state of one part of the configuration.
type Section struct {
	Name     string    `json:"name"`
	Values   []Setting `json:"values"`
	Errors   []Issue   `json:"errors,omitempty"`
	Warnings []Issue   `json:"warnings,omitempty"`
}

// Valid reports whether the section has no errors.
func (s Section) Valid() bool {
	return len(s.Errors) == 0
}

// ErrorFor returns the first error attached to key.
func (s Section) ErrorFor(key string) (Issue, bool) {
	return findIssue(s.Errors, key)
}

// WarningFor returns the first warning attached to key.
func (s Section) WarningFor(key string) (Issue, bool) {
	return findIssue(s.Warnings, key)
}

// Report runs ValidateDeep and Warnings and arranges the outcome by section,
// alongside the effective values each section resolved to.
func (c *Config) Report(configPath string) []Section {
	sections := []Section{
		{
			Name: SectionFiles,
			Values: []Setting{
				{Key: "config_file", Value: configPath},
				{Key: "data_dir", Value: c.DataDir},
				{Key: "history_file", Value: c.HistoryFile()},
			},
		},
		{
			Name: SectionHistory,
			Values: []Setting{
				{Key: "retention_max", Value: strconv.Itoa(c.History.RetentionMax)},
				{Key: "preload_cap", Value: strconv.Itoa(c.History.PreloadCap)},
				{Key: "backend", Value: c.History.Backend},
			},
		},
		{
			Name: SectionComposer,
			Values: []Setting{
				{Key: "placeholder", Value: strconv.Quote(c.Composer.Placeholder)},
				{Key: "char_limit", Value: strconv.Itoa(c.Composer.CharLimit)},
			},
		},
	}

	index := make(map[string]int, len(sections))
	for i, s := range sections {
		index[s.Name] = i
	}

	if err := c.ValidateDeep(configPath); err != nil {
		var fieldErrs criterio.FieldErrors
		if !errors.As(err, &fieldErrs) {
			fieldErrs = criterio.FieldErrors{{Err: err}}
		}
		for _, fe := range fieldErrs {
			name, key := splitField(fe.Field)
			i := index[name]
			sections[i].Errors = append(sections[i].Errors, Issue{Key: key, Message: fe.Err.Error()})
		}
	}

	for _, w := range c.Warnings() {
		name, key := splitField(w.Field)
		i := index[name]
		sections[i].Warnings = append(sections[i].Warnings, Issue{Key: key, Message: w.Message})
	}

	return sections
}

// splitField maps a dotted field key to its section and setting key.
// Top-level keys such as data_dir belong to the files section.
func splitField(field string) (section, key string) {
	if name, rest, ok := strings.Cut(field, "."); ok {
		switch name {
		case SectionHistory, SectionComposer:
			return name, rest
		}
	}
	return SectionFiles, field
}

func findIssue(issues []Issue, key string) (Issue, bool) {
	for _, is := range issues {
		if is.Key == key {
			return is, true
		}
	}
	return Issue{}, false
}
