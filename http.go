package main

import (
	"net"
	"net/http"
	"runtime"
	"time"
)

const jsonAPIContentType = "application/vnd.api+json"

func defaultClient() *http.Client {
	return &http.Client{
		Transport: defaultTransport(),
	}
}

func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   runtime.GOMAXPROCS(0) + 1,
	}
}

// newAuthedClient returns a client for the registry API. Upload URLs are
// pre-signed and must not receive the token, use defaultClient for those.
func newAuthedClient(token string) *http.Client {
	return &http.Client{
		Transport: &authedTransport{
			RoundTripper: defaultTransport(),
			token:        token,
		},
	}
}

type authedTransport struct {
	http.RoundTripper
	token string
}

func (t *authedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	if values := req.Header.Values("Authorization"); len(values) == 0 {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", jsonAPIContentType)
	}
	return t.RoundTripper.RoundTrip(req)
}
