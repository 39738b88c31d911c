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

func newVerifyCmd() *cli.Command {
	cfg := verifyCmd{}

	fs := flag.NewFlagSet("provider-publish verify", flag.ExitOnError)

	cfg.RegisterFlags(fs)

	return &cli.Command{
		Name:       "verify",
		ShortHelp:  "Check the release files in the dist directory without publishing.",
		ShortUsage: "provider-publish verify [OPTION]...",
		Flags:      fs,
		Exec:       cfg.Exec,
	}
}

type verifyCmd struct {
	rootCmd

	publicKey string
}

func (c *verifyCmd) RegisterFlags(fs *flag.FlagSet) {
	c.rootCmd.RegisterFlags(fs)

	fs.StringVar(&c.publicKey, "public-key", "", "Verify the checksum signature with this public key.")
}

func (c *verifyCmd) Exec(ctx context.Context, args []string) (err error) {
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

	opts := VerifyOptions{
		DistDir: settings.DistDir,
		Provider: ProviderAddress{
			RegistryURL: settings.Registry.URL,
			Service:     settings.Registry.Service,
			Name:        settings.Provider.Name,
		},
		KeyID: envKeyID.lookup(os.LookupEnv),
	}
	if c.publicKey != "" {
		if opts.Keyring, err = LoadKeyring(c.publicKey); err != nil {
			return err
		}
	}

	spinners := newSpinnerProgress()
	spinners.begin()
	artifacts, err := VerifyRelease(opts, spinners)
	spinners.end()
	if err != nil {
		slog.With("error", err).
			With(metaerr.GetMetadata(err)...).
			Error("release verification failed", "dist", opts.DistDir)
		return fmt.Errorf("verify %s: %w", opts, err)
	}

	data := pterm.TableData{{"OS", "Arch", "Filename", "SHA256"}}
	for _, a := range artifacts {
		data = append(data, []string{a.OS, a.Arch, a.Filename, a.Shasum})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
