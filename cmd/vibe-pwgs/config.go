package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-pwgs configuration",
		Long:  "Show, get, or set default option values. Config is stored in ~/.vibe-pwgs.yaml.",
		Example: `  vibe-pwgs config                         # show all config
  vibe-pwgs config set read-length 150     # default read length
  vibe-pwgs config get cnv-confidence      # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

// runConfigShow prints the values that differ from the flag defaults.
func runConfigShow(w io.Writer) error {
	settings := make(map[string]any)
	for _, key := range viper.AllKeys() {
		if viper.InConfig(key) {
			settings[key] = viper.Get(key)
		}
	}
	if len(settings) == 0 {
		fmt.Fprintf(w, "# No configuration set. Config file: ~/%s.yaml\n", configName)
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

// parseConfigValue converts booleans and numbers so they are stored typed.
func parseConfigValue(value string) any {
	switch value {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// runConfigSet stores one key in the config file, keeping the keys already
// there. Flag defaults are never written.
func runConfigSet(w io.Writer, key, value string) error {
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configName+".yaml")
	}

	settings := make(map[string]any)
	data, err := os.ReadFile(cfgFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parsing config %s: %w", cfgFile, err)
	}
	if settings == nil {
		settings = make(map[string]any)
	}

	parsed := parseConfigValue(value)
	settings[key] = parsed

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(cfgFile, out, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	viper.Set(key, parsed)

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, viper.Get(key))
	return nil
}
