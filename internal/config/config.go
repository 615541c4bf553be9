// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr         string
	DBPath             string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string
	SyncPageSize       int
}

// HasOAuthCredentials returns true when both the client id and secret are
// set. Without them the server still starts, but the login routes refuse to
// begin the OAuth flow.
func (c *Config) HasOAuthCredentials() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. OAuth credentials (HUBMIRROR_GITHUB_CLIENT_ID,
// HUBMIRROR_GITHUB_CLIENT_SECRET, HUBMIRROR_GITHUB_REDIRECT_URL) are
// optional. Optional variables with defaults: HUBMIRROR_LISTEN_ADDR
// (127.0.0.1:8080), HUBMIRROR_DB_PATH (hubmirror.db),
// HUBMIRROR_SYNC_PAGE_SIZE (100).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("HUBMIRROR_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "hubmirror.db"
	if v, ok := os.LookupEnv("HUBMIRROR_DB_PATH"); ok {
		dbPath = v
	}

	// GitHub caps per_page at 100; larger values are silently truncated by
	// the API and would break short-page pagination termination.
	pageSize := 100
	if v, ok := os.LookupEnv("HUBMIRROR_SYNC_PAGE_SIZE"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			return nil, fmt.Errorf("HUBMIRROR_SYNC_PAGE_SIZE must be an integer in [1,100], got %q", v)
		}
		pageSize = parsed
	}

	return &Config{
		ListenAddr:         listenAddr,
		DBPath:             dbPath,
		GitHubClientID:     os.Getenv("HUBMIRROR_GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("HUBMIRROR_GITHUB_CLIENT_SECRET"),
		GitHubRedirectURL:  os.Getenv("HUBMIRROR_GITHUB_REDIRECT_URL"),
		SyncPageSize:       pageSize,
	}, nil
}
