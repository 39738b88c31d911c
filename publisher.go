package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/ProtonMail/go-crypto/openpgp"
	"golang.org/x/sync/errgroup"

	"go.cluttr.dev/provider-publish/internal/metaerr"
)

// State is the position of a run in the publish workflow.
type State string

const (
	StateStart             State = "start"
	StateVersionCreated    State = "version-created"
	StateChecksumsUploaded State = "checksums-uploaded"
	StateIndexBuilt        State = "index-built"
	StateDone              State = "done"
	StateAborted           State = "aborted"
)

type registryAPI interface {
	ListVersions(ctx context.Context, versionsURL string) ([]string, error)
	CreateVersion(ctx context.Context, versionsURL string, version string, keyID string) (VersionRecord, error)
	CreatePlatform(ctx context.Context, platformsURL string, artifact PlatformArtifact) (string, error)
	Upload(ctx context.Context, step string, url string, path string) error
}

// progress receives step notifications, e.g. to drive terminal spinners.
type progress interface {
	Start(step string)
	Done(step string, err error)
}

type nopProgress struct{}

func (nopProgress) Start(string)       {}
func (nopProgress) Done(string, error) {}

// Publisher runs the publish workflow for one release.
type Publisher struct {
	cfg      RunConfig
	registry registryAPI
	keyring  openpgp.EntityList
	progress progress

	mu        sync.Mutex
	state     State
	aborted   bool
	published []PlatformArtifact
}

// PublisherOption configures optional Publisher behaviour.
type PublisherOption func(*Publisher)

// WithKeyring makes the publisher verify the checksum signature against
// keyring before anything is sent to the registry.
func WithKeyring(keyring openpgp.EntityList) PublisherOption {
	return func(p *Publisher) {
		p.keyring = keyring
	}
}

func withProgress(pr progress) PublisherOption {
	return func(p *Publisher) {
		p.progress = pr
	}
}

func NewPublisher(cfg RunConfig, registry registryAPI, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		cfg:      cfg,
		registry: registry,
		progress: nopProgress{},
		state:    StateStart,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// release holds everything read from the dist directory.
type release struct {
	files     DistFiles
	index     ChecksumIndex
	artifacts []PlatformArtifact
}

// Run publishes the release. It stops at the first error; nothing that was
// already created in the registry is rolled back.
func (p *Publisher) Run(ctx context.Context) (Report, error) {
	err := p.run(ctx)
	if err != nil {
		p.mu.Lock()
		p.aborted = true
		p.mu.Unlock()
	}
	return p.report(err), err
}

func (p *Publisher) run(ctx context.Context) error {
	rel, err := p.prepare()
	if err != nil {
		return fmt.Errorf("prepare release: %w", err)
	}

	record, err := step(p.progress, "Creating version "+p.cfg.Version, func() (VersionRecord, error) {
		return p.CreateVersion(ctx)
	})
	if err != nil {
		return err
	}
	p.setState(StateVersionCreated)

	if _, err := step(p.progress, "Uploading checksums", func() (struct{}, error) {
		return struct{}{}, p.UploadChecksumFiles(ctx, record, rel.files)
	}); err != nil {
		return err
	}
	p.setState(StateChecksumsUploaded)

	slog.Info("artifact checksum index", "entries", len(rel.index))
	p.setState(StateIndexBuilt)

	if err := p.publishPlatforms(ctx, record, rel.artifacts); err != nil {
		return err
	}
	p.setState(StateDone)

	return nil
}

// prepare reads and validates the dist directory. Malformed checksum lists
// and archive names are reported here, before the registry is touched.
func (p *Publisher) prepare() (release, error) {
	files, err := DiscoverDist(p.cfg.DistDir)
	if err != nil {
		return release{}, err
	}

	index, err := BuildChecksumIndex(files.Sums)
	if err != nil {
		return release{}, err
	}

	artifacts := make([]PlatformArtifact, 0, len(files.Archives))
	for _, path := range files.Archives {
		artifact, err := NewPlatformArtifact(path, index)
		if err != nil {
			return release{}, err
		}
		artifacts = append(artifacts, artifact)
	}

	if len(p.keyring) > 0 {
		if err := VerifySignature(files.Sums, files.Sig, p.keyring, p.cfg.KeyID); err != nil {
			return release{}, err
		}
		slog.Info("checksum signature verified", "file", files.Sums, "key_id", p.cfg.KeyID)
	}

	return release{files: files, index: index, artifacts: artifacts}, nil
}

// CreateVersion registers the configured version. It fails if the registry
// already lists that version.
func (p *Publisher) CreateVersion(ctx context.Context) (VersionRecord, error) {
	versionsURL := p.cfg.Provider.VersionsURL()
	slog.Info("creating provider version", "url", versionsURL, "version", p.cfg.Version)

	existing, err := p.registry.ListVersions(ctx, versionsURL)
	if err != nil {
		return VersionRecord{}, err
	}
	if containsVersion(existing, p.cfg.Version) {
		return VersionRecord{}, &ConfigurationError{
			Key:    "REF_NAME",
			Reason: fmt.Sprintf("version %s already exists in the registry", p.cfg.Version),
		}
	}

	record, err := p.registry.CreateVersion(ctx, versionsURL, p.cfg.Version, p.cfg.KeyID)
	if err != nil {
		return VersionRecord{}, err
	}
	slog.Info("provider version created",
		"version", record.Version,
		"shasums_upload", record.ShasumsUpload,
		"shasums_sig_upload", record.ShasumsSigUpload,
	)
	return record, nil
}

// UploadChecksumFiles uploads the checksum list and its signature to the
// upload links of record.
func (p *Publisher) UploadChecksumFiles(ctx context.Context, record VersionRecord, files DistFiles) error {
	uploads := []struct {
		path string
		url  string
	}{
		{files.Sums, record.ShasumsUpload},
		{files.Sig, record.ShasumsSigUpload},
	}
	for _, u := range uploads {
		if err := p.registry.Upload(ctx, "upload "+filepath.Base(u.path), u.url, u.path); err != nil {
			return err
		}
	}
	return nil
}

// PublishPlatform registers the artifact's platform and uploads the archive.
func (p *Publisher) PublishPlatform(ctx context.Context, record VersionRecord, artifact PlatformArtifact) error {
	slog.Info("creating platform",
		"filename", artifact.Filename,
		"os", artifact.OS,
		"arch", artifact.Arch,
		"shasum", artifact.Shasum,
	)

	uploadURL, err := p.registry.CreatePlatform(ctx, p.cfg.Provider.PlatformsURL(record.Version), artifact)
	if err != nil {
		return err
	}

	if err := p.registry.Upload(ctx, "upload "+artifact.Filename, uploadURL, artifact.Path); err != nil {
		return err
	}

	p.mu.Lock()
	p.published = append(p.published, artifact)
	p.mu.Unlock()
	return nil
}

func (p *Publisher) publishPlatforms(ctx context.Context, record VersionRecord, artifacts []PlatformArtifact) error {
	publish := func(ctx context.Context, artifact PlatformArtifact) error {
		title := fmt.Sprintf("Publishing %s/%s", artifact.OS, artifact.Arch)
		_, err := step(p.progress, title, func() (struct{}, error) {
			return struct{}{}, p.PublishPlatform(ctx, record, artifact)
		})
		return metaerr.WithMetadata(err, "platform", artifact.OS+"_"+artifact.Arch)
	}

	if p.cfg.Concurrency <= 1 {
		for _, artifact := range artifacts {
			if err := publish(ctx, artifact); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for _, artifact := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return publish(gctx, artifact)
		})
	}
	return g.Wait()
}

func step[T any](pr progress, title string, fn func() (T, error)) (T, error) {
	pr.Start(title)
	v, err := fn()
	pr.Done(title, err)
	return v, err
}

func (p *Publisher) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// State returns the current state of the run, StateAborted after a failure.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.aborted {
		return StateAborted
	}
	return p.state
}

// Reached returns the last state the run completed, even after an abort.
func (p *Publisher) Reached() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
