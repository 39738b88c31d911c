package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"go.cluttr.dev/provider-publish/internal/metaerr"
)

const (
	pathVersions           = "$.data[*].attributes.version"
	pathNextPage           = "$.links.next"
	pathShasumsUpload      = "$.data.links['shasums-upload']"
	pathShasumsSigUpload   = "$.data.links['shasums-sig-upload']"
	pathProviderBinaryLink = "$.data.links['provider-binary-upload']"
)

// VersionRecord is the registry's answer to a version creation.
type VersionRecord struct {
	Version          string
	ShasumsUpload    string
	ShasumsSigUpload string
}

// RegistryClient talks to the private provider registry API.
type RegistryClient struct {
	api    *http.Client
	upload *http.Client
}

// NewRegistryClient returns a client that authenticates API calls with token.
func NewRegistryClient(token string) *RegistryClient {
	return &RegistryClient{
		api:    newAuthedClient(token),
		upload: defaultClient(),
	}
}

type jsonAPIDocument struct {
	Data jsonAPIResource `json:"data"`
}

type jsonAPIResource struct {
	Type       string `json:"type"`
	Attributes any    `json:"attributes"`
}

type versionAttributes struct {
	Version   string   `json:"version"`
	KeyID     string   `json:"key-id"`
	Protocols []string `json:"protocols"`
}

// ListVersions returns every version registered under versionsURL,
// following the `links.next` pagination of the JSON:API response.
func (c *RegistryClient) ListVersions(ctx context.Context, versionsURL string) ([]string, error) {
	var versions []string

	seen := make(map[string]bool)
	url := versionsURL
	for url != "" {
		if seen[url] {
			return nil, metaerr.WithMetadata(
				fmt.Errorf("list versions: pagination loops back to %s", url),
				"url", versionsURL,
			)
		}
		seen[url] = true

		doc, err := c.doJSON(ctx, "list versions", http.MethodGet, url, nil, http.StatusOK)
		if err != nil {
			return nil, err
		}
		versions = append(versions, retrieveStrings(doc, pathVersions)...)

		url = retrieveString(doc, pathNextPage)
	}

	return versions, nil
}

// CreateVersion registers version signed by keyID.
func (c *RegistryClient) CreateVersion(ctx context.Context, versionsURL string, version string, keyID string) (VersionRecord, error) {
	payload := jsonAPIDocument{
		Data: jsonAPIResource{
			Type: "registry-provider-versions",
			Attributes: versionAttributes{
				Version:   version,
				KeyID:     keyID,
				Protocols: []string{"5.0"},
			},
		},
	}

	const step = "create version"
	doc, err := c.doJSON(ctx, step, http.MethodPost, versionsURL, payload, http.StatusCreated)
	if err != nil {
		return VersionRecord{}, err
	}

	record := VersionRecord{
		Version:          version,
		ShasumsUpload:    retrieveString(doc, pathShasumsUpload),
		ShasumsSigUpload: retrieveString(doc, pathShasumsSigUpload),
	}
	if record.ShasumsUpload == "" || record.ShasumsSigUpload == "" {
		return VersionRecord{}, missingLink(step, versionsURL, doc, "shasums-upload/shasums-sig-upload")
	}
	return record, nil
}

// CreatePlatform registers a platform and returns its binary upload URL.
func (c *RegistryClient) CreatePlatform(ctx context.Context, platformsURL string, artifact PlatformArtifact) (string, error) {
	payload := jsonAPIDocument{
		Data: jsonAPIResource{
			Type:       "registry-provider-version-platforms",
			Attributes: artifact,
		},
	}

	const step = "create platform"
	doc, err := c.doJSON(ctx, step, http.MethodPost, platformsURL, payload, http.StatusCreated)
	if err != nil {
		return "", metaerr.WithMetadata(err, "filename", artifact.Filename)
	}

	uploadURL := retrieveString(doc, pathProviderBinaryLink)
	if uploadURL == "" {
		return "", missingLink(step, platformsURL, doc, "provider-binary-upload")
	}
	return uploadURL, nil
}

// Upload reads the file at path and PUTs its content to url. Upload URLs
// are pre-signed, the request carries no credentials.
func (c *RegistryClient) Upload(ctx context.Context, step string, url string, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: read %s: %w", step, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}

	resp, err := c.upload.Do(req)
	if err != nil {
		return &NetworkError{Step: step, Method: req.Method, URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return metaerr.WithMetadata(
			&APIError{Step: step, Method: req.Method, URL: url, StatusCode: resp.StatusCode, Body: body},
			"file", path,
		)
	}

	slog.Info("uploaded file", "step", step, "file", path, "bytes", len(data), "status", resp.StatusCode)
	return nil
}

func (c *RegistryClient) doJSON(ctx context.Context, step string, method string, url string, payload any, want int) (any, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", step, err)
		}
		slog.Debug("request payload", "step", step, "payload", string(data))
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	req.Header.Set("Content-Type", jsonAPIContentType)

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, &NetworkError{Step: step, Method: method, URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Step: step, Method: method, URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode != want {
		return nil, &APIError{Step: step, Method: method, URL: url, StatusCode: resp.StatusCode, Body: data}
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, metaerr.WithMetadata(
			fmt.Errorf("%s: unmarshal response body: %w", step, err),
			"body", string(data),
		)
	}
	slog.Debug("response", "step", step, "status", resp.StatusCode, "body", string(data))

	return doc, nil
}

func missingLink(step string, url string, doc any, link string) error {
	body, _ := json.Marshal(doc)
	return metaerr.WithMetadata(
		fmt.Errorf("%s: response is missing the %s link", step, link),
		"url", url,
		"body", string(body),
	)
}
