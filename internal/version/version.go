/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version exposes the build version and a background update checker.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Version is the current version of Norn Transit.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/norn_transit/internal/version.Version=X.Y.Z
var Version = "0.4.1"

// GitHubRepo is the repository to check for updates.
const GitHubRepo = "friendsincode/norn_transit"

// UpdateInfo is a snapshot of the most recent release check.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Checker polls GitHub for newer releases.
type Checker struct {
	logger   zerolog.Logger
	client   *http.Client
	interval time.Duration
	cancel   context.CancelFunc

	mu   sync.RWMutex
	info UpdateInfo
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// NewChecker creates a new update checker.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		logger:   logger.With().Str("component", "update-checker").Logger(),
		client:   &http.Client{Timeout: 10 * time.Second},
		interval: 6 * time.Hour,
		info:     UpdateInfo{CurrentVersion: Version},
	}
}

// Start launches the polling loop. The first check runs right away but in
// the background, so Start never blocks on the network.
func (c *Checker) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

func (c *Checker) run(ctx context.Context) {
	c.check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

// Stop ends the polling loop.
func (c *Checker) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Info returns the last check result. Before any check completes it carries
// only the current version.
func (c *Checker) Info() UpdateInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

func (c *Checker) check(ctx context.Context) {
	rel, err := c.fetchLatest(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("release check failed")
		return
	}

	latest := strings.TrimPrefix(rel.TagName, "v")
	newer := compareVersions(Version, latest) < 0

	c.mu.Lock()
	c.info = UpdateInfo{
		CurrentVersion:  Version,
		LatestVersion:   latest,
		UpdateAvailable: newer,
		ReleaseURL:      rel.HTMLURL,
		CheckedAt:       time.Now(),
	}
	c.mu.Unlock()

	if newer {
		c.logger.Info().
			Str("current", Version).
			Str("latest", latest).
			Str("url", rel.HTMLURL).
			Msg("new version available")
	}
}

func (c *Checker) fetchLatest(ctx context.Context) (*githubRelease, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", GitHubRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "Norn-Transit/"+Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github responded %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	return &rel, nil
}

// compareVersions orders two dotted versions; negative means a is older
// than b.
func compareVersions(a, b string) int {
	av, bv := parseVersion(a), parseVersion(b)
	for i := range av {
		if av[i] != bv[i] {
			if av[i] < bv[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func parseVersion(v string) [3]int {
	var out [3]int
	for i, p := range strings.Split(strings.TrimPrefix(v, "v"), ".") {
		if i == len(out) {
			break
		}
		// Pre-release or build suffixes ("1.2.3-rc1") stop at the separator.
		if sep := strings.IndexAny(p, "-+"); sep >= 0 {
			p = p[:sep]
		}
		if n, err := strconv.Atoi(p); err == nil {
			out[i] = n
		}
	}
	return out
}
