// Package cmd implements the chaind command surface (§4.11): a thin
// cobra/viper root command wiring the domain packages into a runnable
// node process. It follows this lineage's own base-command pattern
// (config file + env-prefixed flag binding done once in
// PersistentPreRunE) rather than inventing a new one.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chaincorelabs/dposchain/logger"
)

const (
	envPrefix         = "CHAIND"
	defaultConfigFile = "config.yaml"
	keyHome           = "home"
	keyConfig         = "config"

	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

// baseConfiguration holds the flags every subcommand inherits.
type baseConfiguration struct {
	HomeDir string
	CfgFile string

	LogLevel  string
	LogFormat string

	log *slog.Logger
}

// New builds the chaind root command with the run subcommand attached.
func New() *cobra.Command {
	base := &baseConfiguration{}
	root := &cobra.Command{
		Use:           "chaind",
		Short:         "chaind runs a single chain controller node",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeConfig(cmd, base)
		},
	}
	root.PersistentFlags().StringVar(&base.HomeDir, keyHome, defaultHomeDir(), "data directory for chaind's own files (keys, config)")
	root.PersistentFlags().StringVar(&base.CfgFile, keyConfig, "", "config file path (default: $home/"+defaultConfigFile+")")
	root.PersistentFlags().StringVar(&base.LogLevel, flagLogLevel, "info", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().StringVar(&base.LogFormat, flagLogFormat, "console", "log format: console, json")

	root.AddCommand(newRunCmd(base))
	return root
}

func initializeConfig(cmd *cobra.Command, base *baseConfiguration) error {
	v := viper.New()

	cfgFile := base.CfgFile
	if cfgFile == "" {
		cfgFile = filepath.Join(base.HomeDir, defaultConfigFile)
	}
	if _, err := os.Stat(cfgFile); err == nil {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := bindFlags(cmd, v); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	base.log = logger.New(logger.Config{
		Level:      base.LogLevel,
		ConsoleFmt: base.LogFormat != "json",
	})
	return nil
}

// bindFlags mirrors this lineage's own implementation: flags win when
// explicitly set, otherwise fall back to the config file/environment
// value bound through viper.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == keyHome || f.Name == keyConfig {
			return
		}
		if strings.Contains(f.Name, "-") {
			envVar := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVar)); err != nil {
				errs = append(errs, fmt.Errorf("binding env for flag %q: %w", f.Name, err))
				return
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("applying config value to flag %q: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

func defaultHomeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".chaind"
	}
	return filepath.Join(dir, ".chaind")
}
