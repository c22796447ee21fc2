package doctor

import (
	"context"
	"strings"

	"github.com/hay-kot/quill/internal/core/config"
)

// ConfigCheck reports each configuration section as a whole, then the
// individual settings that are invalid or questionable.
type ConfigCheck struct {
	config     *config.Config
	configPath string
}

// NewConfigCheck creates a new configuration check.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{
		config:     cfg,
		configPath: configPath,
	}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if c.config == nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Config loaded",
			Status: StatusFail,
			Detail: "configuration not loaded",
		})
		return result
	}

	result.Facts = append(result.Facts, Fact{Key: "config_file", Value: c.configPath})

	for _, section := range c.config.Report(c.configPath) {
		if section.Valid() && len(section.Warnings) == 0 {
			result.Items = append(result.Items, CheckItem{
				Label:  section.Name,
				Status: StatusPass,
				Detail: summarize(section.Values),
			})
			continue
		}

		for _, is := range section.Errors {
			result.Items = append(result.Items, CheckItem{
				Label:  issueLabel(section.Name, is),
				Status: StatusFail,
				Detail: is.Message,
			})
		}
		for _, is := range section.Warnings {
			result.Items = append(result.Items, CheckItem{
				Label:  issueLabel(section.Name, is),
				Status: StatusWarn,
				Detail: is.Message,
			})
		}
	}

	return result
}

func issueLabel(section string, is config.Issue) string {
	if is.Key == "" || is.Key == section {
		return section
	}
	if section == config.SectionFiles {
		return is.Key
	}
	return section + "." + is.Key
}

func summarize(values []config.Setting) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, v.Key+"="+v.Value)
	}
	return strings.Join(parts, " ")
}
