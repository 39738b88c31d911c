package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cluttrdev/cli"
	"github.com/pterm/pterm"

	"go.cluttr.dev/provider-publish/internal/metaerr"
)

func newPublishCmd() *cli.Command {
	cfg := publishCmd{}

	fs := flag.NewFlagSet("provider-publish publish", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "publish",
		ShortHelp:  "Create a provider version and upload its release files.",
		ShortUsage: "provider-publish publish [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type publishCmd struct {
	rootCmd

	concurrency int
	publicKey   string
	reportFile  string
}

func (c *publishCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)

	fs.IntVar(&c.concurrency, "concurrency", 0, "Number of platforms to publish in parallel (default from settings, 1).")
	fs.StringVar(&c.publicKey, "public-key", "", "Verify the checksum signature with this public key before publishing.")
	fs.StringVar(&c.reportFile, "report", "", "Write a YAML report of the run to this file.")
}

func (c *publishCmd) Exec(ctx context.Context, args []string) (err error) {
	c.initLogging()
	defer func() {
		err = c.withLogHint(err)
	}()

	if err := LoadEnvFile(c.EnvFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	settings, err := c.loadSettings()
	if err != nil {
		return err
	}
	if c.concurrency > 0 {
		settings.Concurrency = c.concurrency
	}

	cfg, err := NewRunConfig(settings, os.LookupEnv)
	if err != nil {
		return err
	}

	var opts []PublisherOption
	if c.publicKey != "" {
		keyring, err := LoadKeyring(c.publicKey)
		if err != nil {
			return err
		}
		opts = append(opts, WithKeyring(keyring))
	}

	spinners := newSpinnerProgress()
	opts = append(opts, withProgress(spinners))

	publisher := NewPublisher(cfg, NewRegistryClient(cfg.Token), opts...)

	spinners.begin()
	report, err := publisher.Run(ctx)
	spinners.end()

	if c.reportFile != "" {
		if werr := writeReportFile(c.reportFile, report); werr != nil {
			slog.Error("failed to write report", "file", c.reportFile, "error", werr)
		}
	}

	if err != nil {
		slog.With("error", err).
			With(metaerr.GetMetadata(err)...).
			Error("failed to publish provider", "version", cfg.Version, "reached", report.Reached)
		return fmt.Errorf("publish %s %s (after %s): %w", report.Provider, cfg.Version, report.Reached, err)
	}

	pterm.Success.Printfln("Published %s %s (%d platforms)", report.Provider, cfg.Version, len(report.Platforms))
	return nil
}
