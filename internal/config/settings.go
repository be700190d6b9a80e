package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/steveyegge/roadmap/internal/types"
)

// EnvPrefix prefixes environment overrides; progress.velocity_window_days is read from
// ROADMAP_PROGRESS_VELOCITY_WINDOW_DAYS.
const EnvPrefix = "ROADMAP"

// Defaults applied beneath both layers.
var Defaults = map[string]any{
	"project.name":                  "",
	"user.name":                     "",
	"user.email":                    "",
	"defaults.priority":             string(types.PriorityMedium),
	"defaults.issue_type":           string(types.TypeFeature),
	"progress.velocity_window_days": 14,
	"progress.risk_tolerance_days":  7,
	"graph.strict_references":       false,
	"templates.dir":                 "templates",
	"ui.color":                      true,
}

// Settings is the effective configuration of one workspace.
type Settings struct {
	v      *viper.Viper
	layers *Layers
}

// Load reads, merges and schema-checks the layers in dir.
func Load(dir string) (*Settings, error) {
	layers, err := LoadLayers(dir)
	if err != nil {
		return nil, err
	}
	return FromLayers(layers)
}

// FromLayers builds settings from already loaded layers.
func FromLayers(layers *Layers) (*Settings, error) {
	if err := Check(layers.Effective); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range Defaults {
		v.SetDefault(k, val)
	}
	if err := v.MergeConfigMap(layers.Effective); err != nil {
		return nil, fmt.Errorf("failed to apply config: %w", err)
	}
	return &Settings{v: v, layers: layers}, nil
}

// Default returns settings with no layers at all.
func Default() *Settings {
	s, err := FromLayers(&Layers{Shared: map[string]any{}, Local: map[string]any{}, Effective: map[string]any{}})
	if err != nil {
		// the empty mapping always satisfies the schema
		panic(err)
	}
	return s
}

// Layers returns the raw layers the settings were built from.
func (s *Settings) Layers() *Layers { return s.layers }

// GetString returns a string setting.
func (s *Settings) GetString(key string) string { return s.v.GetString(key) }

// GetBool returns a boolean setting.
func (s *Settings) GetBool(key string) bool { return s.v.GetBool(key) }

// GetInt returns an integer setting.
func (s *Settings) GetInt(key string) int { return s.v.GetInt(key) }

// AllSettings returns the effective settings including defaults, as nested maps.
func (s *Settings) AllSettings() map[string]any { return s.v.AllSettings() }

// Actor identifies who is making changes, for handoff records and issue creation.
func (s *Settings) Actor() string {
	if name := s.GetString("user.name"); name != "" {
		return name
	}
	return s.GetString("user.email")
}

// DefaultPriority is the priority given to new issues.
func (s *Settings) DefaultPriority() types.Priority {
	if p := types.Priority(s.GetString("defaults.priority")); p.IsValid() {
		return p
	}
	return types.PriorityMedium
}

// DefaultIssueType is the type given to new issues.
func (s *Settings) DefaultIssueType() types.IssueType {
	if t := types.IssueType(s.GetString("defaults.issue_type")); t.IsValid() {
		return t
	}
	return types.TypeFeature
}

// VelocityWindow is the trailing window used for completion velocity.
func (s *Settings) VelocityWindow() time.Duration {
	return days(s.GetInt("progress.velocity_window_days"), 14)
}

// RiskTolerance is the slack allowed past a due date before risk is high.
func (s *Settings) RiskTolerance() time.Duration {
	n := s.GetInt("progress.risk_tolerance_days")
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * 24 * time.Hour
}

// StrictReferences makes dangling depends_on entries an error instead of a warning.
func (s *Settings) StrictReferences() bool { return s.GetBool("graph.strict_references") }

// TemplatesDir is the override directory, relative to the workspace unless absolute.
func (s *Settings) TemplatesDir() string { return s.GetString("templates.dir") }

// Color reports whether CLI output may use color.
func (s *Settings) Color() bool { return s.GetBool("ui.color") }

func days(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * 24 * time.Hour
}
