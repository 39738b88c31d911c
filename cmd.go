package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cluttrdev/cli"
)

const defaultSettingsFile = ".provider-publish.yaml"

// execute configures the root command and then runs it with the given context.
func execute(ctx context.Context) error {
	cmd := configure()
	opts := []cli.ParseOption{
		cli.WithEnvVarPrefix("PROVIDER_PUBLISH"),
	}
	args := os.Args[1:]

	if err := cmd.Parse(args, opts...); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse arguments: %w", err)
	}

	return cmd.Run(ctx)
}

// configure returns the root command.
func configure() *cli.Command {
	var cfg rootCmd

	fs := flag.NewFlagSet("provider-publish", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "provider-publish",
		ShortHelp:  "Publish Terraform provider releases to a private registry.",
		ShortUsage: "provider-publish [COMMAND] [OPTION]...",
		Subcommands: []*cli.Command{
			cli.DefaultVersionCommand(os.Stdout),
			newPublishCmd(),
			newVerifyCmd(),
		},
		Flags: fs,
		Exec:  cfg.Exec,
	}
}

func initLogging(w io.Writer, level string, format string) {
	if w == nil {
		w = os.Stderr
	}

	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := slog.HandlerOptions{
		Level: lvl,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, &opts)
	case "json":
		handler = slog.NewJSONHandler(w, &opts)
	default:
		handler = slog.NewTextHandler(w, &opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

type rootCmd struct {
	SettingsFile string
	EnvFile      string

	// overrides for the settings file
	distDir     string
	provider    string
	registryURL string

	logFile   *os.File
	logPath   string
	logLevel  string
	logFormat string
	debug     bool
}

func (c *rootCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.SettingsFile, "config", defaultSettingsFile, "The settings file.")
	fs.StringVar(&c.EnvFile, "env-file", ".env", "A dotenv file to load into the environment.")

	fs.StringVar(&c.distDir, "dist", "", "The directory holding the release files (default from settings, 'dist').")
	fs.StringVar(&c.provider, "provider", "", "The provider name, e.g. 'awx' for terraform-provider-awx.")
	fs.StringVar(&c.registryURL, "registry-url", "", "The organizations endpoint of the registry API.")

	fs.StringVar(&c.logPath, "log-file", "", "Write the log to this file instead of stderr.")
	fs.StringVar(&c.logLevel, "log-level", "info", "The log level.")
	fs.StringVar(&c.logFormat, "log-format", "text", "The log format ('text' or 'json').")
	fs.BoolVar(&c.debug, "debug", false, "Enable debug mode.")
}

func (c *rootCmd) Exec(ctx context.Context, args []string) error {
	return flag.ErrHelp
}

func (c *rootCmd) initLogging() {
	if c.logPath != "" {
		c.logFile, _ = os.OpenFile(c.logPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	}
	if c.logFile == nil {
		c.logFile = os.Stderr
	}

	level := c.logLevel
	if c.debug {
		level = "debug"
	}
	initLogging(c.logFile, level, c.logFormat)
}

// withLogHint points the user at the log file when the log does not go to
// stderr.
func (c *rootCmd) withLogHint(err error) error {
	if err != nil && c.logFile != nil && c.logFile != os.Stderr {
		return fmt.Errorf("%w\nSee %s for details", err, c.logFile.Name())
	}
	return err
}

// loadSettings merges defaults, the settings file and command line overrides.
// The default settings file is optional, an explicitly named one is not.
func (c *rootCmd) loadSettings() (Settings, error) {
	settings := DefaultSettings()

	if err := LoadSettingsFile(c.SettingsFile, &settings); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || c.SettingsFile != defaultSettingsFile {
			return Settings{}, fmt.Errorf("load settings: %w", err)
		}
	}

	if c.distDir != "" {
		settings.DistDir = c.distDir
	}
	if c.provider != "" {
		settings.Provider.Name = c.provider
	}
	if c.registryURL != "" {
		settings.Registry.URL = c.registryURL
	}

	return settings, nil
}
