// Package config reads loom's configuration from git-config and an
// optional project-level .loom.yml, per SPEC_FULL.md's Configuration
// section.
package config

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/buildkite/shellwords"
	"go.abhg.dev/loom/internal/git"
	"go.abhg.dev/loom/internal/silog"
	"gopkg.in/yaml.v3"
)

const (
	_section           = "loom"
	_shorthandSubsect  = "shorthand"
	_remoteTypeName    = "remote-type"
	_integrationBranch = "integration-branch"
	_absorbDestName    = "absorb.destination"
)

// GitConfigLister provides access to git-config output, the same
// narrow surface the teacher's own configuration loader depends on.
type GitConfigLister interface {
	ListRegexp(context.Context, string) iter.Seq2[git.ConfigEntry, error]
}

var _ GitConfigLister = (*git.Config)(nil)

// Config is loom's resolved configuration: git-config overrides layered
// with an optional .loom.yml project file.
type Config struct {
	// RemoteType overrides remote-type auto-detection ("plain",
	// "github", "gerrit"). Empty means auto-detect.
	RemoteType string

	// IntegrationBranch overrides the default integration branch
	// name ("loom") used by `loom init`.
	IntegrationBranch string

	// AbsorbDestination overrides where absorb's fixups land when
	// ambiguous. Empty means absorb's own default resolution.
	AbsorbDestination string

	shorthands map[string][]string
}

// yamlConfig is the shape of an optional .loom.yml at the repository
// root, mirroring the teacher's "small survivable yaml document"
// pattern for project-level config.
type yamlConfig struct {
	Shorthand map[string]string `yaml:"shorthand"`
}

// Load reads loom.* keys from git-config and layers in .loom.yml's
// shorthand aliases, if the file exists at repoRoot.
func Load(ctx context.Context, cfg GitConfigLister, repoRoot string, log *silog.Logger) (*Config, error) {
	if log == nil {
		log = silog.Nop()
	}

	c := &Config{shorthands: make(map[string][]string)}

	for entry, err := range cfg.ListRegexp(ctx, `^`+_section+`\.`) {
		if err != nil {
			return nil, fmt.Errorf("list configuration: %w", err)
		}

		key := entry.Key.Canonical()
		section, subsection, name := key.Split()
		if section != _section {
			continue
		}

		if subsection == _shorthandSubsect {
			args, err := shellwords.SplitPosix(entry.Value)
			if err != nil {
				log.Warnf("skipping shorthand %q with invalid value %q: %v", name, entry.Value, err)
				continue
			}
			c.shorthands[name] = args
			continue
		}

		fullName := name
		if subsection != "" {
			fullName = subsection + "." + name
		}

		switch fullName {
		case _remoteTypeName:
			c.RemoteType = entry.Value
		case _integrationBranch:
			c.IntegrationBranch = entry.Value
		case _absorbDestName:
			c.AbsorbDestination = entry.Value
		}
	}

	if err := c.loadYAML(repoRoot, log); err != nil {
		return nil, err
	}

	return c, nil
}

// loadYAML layers .loom.yml's shorthand aliases on top of any
// git-config shorthands already loaded, preferring .loom.yml when both
// define the same alias — project config is meant to be shared and
// should win over a single contributor's git-config.
func (c *Config) loadYAML(repoRoot string, log *silog.Logger) error {
	if repoRoot == "" {
		return nil
	}

	path := filepath.Join(repoRoot, ".loom.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc yamlConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for name, value := range doc.Shorthand {
		args, err := shellwords.SplitPosix(value)
		if err != nil {
			log.Warnf("skipping .loom.yml shorthand %q with invalid value %q: %v", name, value, err)
			continue
		}
		c.shorthands[name] = args
	}

	return nil
}

// ExpandShorthand returns the long form of a custom shorthand command,
// implementing [go.abhg.dev/loom/internal/cli/shorthand.Source].
func (c *Config) ExpandShorthand(name string) ([]string, bool) {
	args, ok := c.shorthands[name]
	return args, ok
}

// Shorthands returns a sorted list of all defined shorthands.
func (c *Config) Shorthands() []string {
	names := make([]string, 0, len(c.shorthands))
	for name := range c.shorthands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
