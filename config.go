package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Settings holds the non-secret settings that may be kept in a file.
type Settings struct {
	Registry    RegistrySettings `yaml:"registry"`
	Provider    ProviderSettings `yaml:"provider"`
	DistDir     string           `yaml:"distDir"`
	Concurrency int              `yaml:"concurrency"`
}

type RegistrySettings struct {
	URL     string `yaml:"url"`
	Service string `yaml:"service"`
}

type ProviderSettings struct {
	Name string `yaml:"name"`
}

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() Settings {
	return Settings{
		Registry: RegistrySettings{
			URL:     defaultRegistryURL,
			Service: defaultService,
		},
		Provider: ProviderSettings{
			Name: "awx",
		},
		DistDir:     "dist",
		Concurrency: 1,
	}
}

// LoadSettings reads settings from a reader into `s`. Keys missing from the
// input leave the corresponding fields of `s` untouched.
func LoadSettings(r io.Reader, s *Settings) error {
	if r == nil {
		return nil
	}
	err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(s)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// LoadSettingsFile reads settings from a file into `s`.
func LoadSettingsFile(name string, s *Settings) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return LoadSettings(file, s)
}

// LoadEnvFile adds the variables of a dotenv file to the process
// environment. Variables that are already set win. A missing file is
// not an error.
func LoadEnvFile(name string) error {
	if name == "" {
		return nil
	}
	err := godotenv.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// RunConfig is the immutable configuration of a single publish run.
type RunConfig struct {
	Provider    ProviderAddress
	Token       string
	KeyID       string
	Version     string
	DistDir     string
	Concurrency int
}

type lookupFunc func(key string) (string, bool)

// envVar names a variable and the legacy names accepted in its place.
type envVar struct {
	name      string
	fallbacks []string
}

var (
	envNamespace = envVar{"NAMESPACE", []string{"TFC_PROVIDER_NAMESPACE"}}
	envOrgName   = envVar{"ORG_NAME", []string{"TFC_ORG_NAME"}}
	envToken     = envVar{"TOKEN", []string{"TFC_TOKEN"}}
	envKeyID     = envVar{"GPG_KEY_ID", []string{"TFC_GPG_KEY_ID"}}
	envRefName   = envVar{"REF_NAME", []string{"GITHUB_REF_NAME"}}
)

func (v envVar) lookup(lookup lookupFunc) string {
	for _, key := range append([]string{v.name}, v.fallbacks...) {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (v envVar) require(lookup lookupFunc) (string, error) {
	value := v.lookup(lookup)
	if value == "" {
		keys := strings.Join(append([]string{v.name}, v.fallbacks...), " or ")
		return "", &ConfigurationError{Key: v.name, Reason: fmt.Sprintf("not set (expected %s)", keys)}
	}
	return value, nil
}

// NewRunConfig combines settings with the environment as seen through
// lookup, usually os.LookupEnv.
func NewRunConfig(s Settings, lookup lookupFunc) (RunConfig, error) {
	var (
		cfg RunConfig
		err error
	)

	cfg.Provider = ProviderAddress{
		RegistryURL: s.Registry.URL,
		Service:     s.Registry.Service,
		Name:        s.Provider.Name,
	}
	if cfg.Provider.Namespace, err = envNamespace.require(lookup); err != nil {
		return RunConfig{}, err
	}
	if cfg.Provider.Organization, err = envOrgName.require(lookup); err != nil {
		return RunConfig{}, err
	}
	if cfg.Token, err = envToken.require(lookup); err != nil {
		return RunConfig{}, err
	}
	if cfg.KeyID, err = envKeyID.require(lookup); err != nil {
		return RunConfig{}, err
	}

	ref, err := envRefName.require(lookup)
	if err != nil {
		return RunConfig{}, err
	}
	if cfg.Version, err = VersionFromRef(ref); err != nil {
		return RunConfig{}, err
	}

	if err := cfg.Provider.validate(); err != nil {
		return RunConfig{}, err
	}

	cfg.DistDir = s.DistDir
	if cfg.DistDir == "" {
		return RunConfig{}, &ConfigurationError{Key: "distDir", Reason: "must not be empty"}
	}

	cfg.Concurrency = s.Concurrency
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return cfg, nil
}
