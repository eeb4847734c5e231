/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ssargent/udflash/pkg/config"
	"github.com/ssargent/udflash/pkg/di"
)

type contextKey string

const (
	configKey  contextKey = "config"
	runtimeKey contextKey = "runtime"

	// skipRuntime marks commands that run without config or flash device
	skipRuntime = "skip-runtime"
)

var (
	container *di.Container
	opened    []*di.Runtime
)

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "udflash",
	Short: "udflash - power-loss-resilient user-data record in flash",
	Long: `udflash keeps a 128-byte user-data record in one page of on-chip flash.
The record is written in three ordered steps and sealed with a CRC, so a
power loss at any point leaves a state that a later read can recognise.

The default pebble backend keeps the flash image on disk, so every command
invocation behaves like a power cycle of the device.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipRuntime] != "" {
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if container == nil {
			return errors.New("dependency container not initialized")
		}
		rt, err := container.Build(cfg, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to open flash: %w", err)
		}
		opened = append(opened, rt)

		// Store in command context
		ctx := context.WithValue(cmd.Context(), configKey, cfg)
		cmd.SetContext(context.WithValue(ctx, runtimeKey, rt))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

// execute runs the root command and releases every device it opened
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	for _, rt := range opened {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close flash: %w", cerr)
		}
	}
	opened = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("backend", config.BackendPebble, "Flash backend: memory or pebble")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Directory of the persisted flash image")
	rootCmd.PersistentFlags().String("base-address", "", "Record base address, e.g. 0x0802FD00")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file when present and applies explicitly set
// flags on top of it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Flash.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("data-dir") {
		cfg.Flash.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("base-address") {
		s, _ := flags.GetString("base-address")
		addr, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid --base-address %q: %w", s, err)
		}
		cfg.Flash.BaseAddress = config.Address(addr)
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

func runtimeFrom(cmd *cobra.Command) (*di.Runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey).(*di.Runtime)
	if !ok {
		return nil, errors.New("flash runtime not found in context")
	}
	return rt, nil
}
