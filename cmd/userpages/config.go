package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/vango-dev/userpages/internal/config"
	"github.com/vango-dev/userpages/internal/errors"
)

func configCmd(flags *globalFlags) *cobra.Command {
	var (
		write  bool
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or write the effective configuration",
		Long: `Print the configuration after applying the config file, .env and
USERPAGES_* environment variables.

With --write, the defaults are written to userpages.json (or
userpages.yaml with --format=yaml) in the config directory.

Examples:
  userpages config
  userpages config --format=yaml
  userpages config --write`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if write {
				name := config.ConfigFileName
				if format == "yaml" {
					name = config.YAMLConfigFileName
				}
				if config.Exists(flags.dir) && !force {
					return errors.New(errors.CodeCLI).
						WithDetail("A config file already exists in " + flags.dir).
						WithSuggestion("Pass --force to overwrite it")
				}
				path := filepath.Join(flags.dir, name)
				if err := config.New().SaveTo(path); err != nil {
					return err
				}
				success(out, "Wrote %s", path)
				return nil
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			var data []byte
			switch format {
			case "yaml":
				data, err = yaml.Marshal(cfg)
			case "json", "":
				data, err = json.MarshalIndent(cfg, "", "  ")
				data = append(data, '\n')
			default:
				return errors.New(errors.CodeCLI).
					WithDetail(fmt.Sprintf("unknown format %q", format)).
					WithSuggestion("Use json or yaml")
			}
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the default configuration file")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
