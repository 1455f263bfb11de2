package cli

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/shiftboard/internal/config"
)

// Execute implements the go-flags Commander interface for ConfigCommand.
func (c *ConfigCommand) Execute(args []string) error {
	path := c.Path
	if path == "" && c.globals != nil {
		path = c.globals.Config
	}
	if path == "" {
		path = config.DefaultConfigPath
	}

	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrCreateAt(expanded)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	return c.print(cfg, expanded)
}

func (c *ConfigCommand) print(cfg *config.Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Printf("# %s\n%s", path, data)
	return nil
}
