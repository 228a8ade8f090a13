package chunkio

import (
	"crypto/tls"
	"net/http"
)

// insecureClient returns an http.Client that skips TLS certificate
// verification, for the CLI's documented "insecure" fetch mode.
func insecureClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // explicit opt-in
		},
	}
}
