// Package source defines the feature provider interface and the read-through
// snapshot store that sits between the prediction engine and the upstream
// statistics sources.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/trundler/internal/domain/model"
)

// Provider is one upstream statistics source for one metric group. Fetch
// implementations own their own transport timeouts; the store owns retry,
// rate limiting and caching.
type Provider interface {
	// ID identifies the source in cache keys, metrics and logs.
	ID() string
	// Tier names the aggregation tier this source feeds.
	Tier() string
	// Group is the metric group the source reports on.
	Group() model.MetricGroup
	// Fetch pulls the current snapshot for a player.
	// Returns ErrSourceUnavailable (possibly wrapped) on transient failure.
	Fetch(ctx context.Context, playerID string) (model.SourceSnapshot, error)
}

// fixtureRecord is one player's stats in a fixture file.
type fixtureRecord struct {
	Values     map[string]float64 `yaml:"values"`
	ObservedAt time.Time          `yaml:"observed_at"`
	SampleSize int                `yaml:"sample_size"`
}

// FixtureProvider serves snapshots from a YAML file. It backs the one-shot
// CLI and local development; production deployments register scraper-backed
// providers instead.
type FixtureProvider struct {
	id      string
	tier    string
	group   model.MetricGroup
	players map[string]fixtureRecord
}

// NewFixtureProvider loads a fixture file mapping player IDs to records.
func NewFixtureProvider(id, tier string, group model.MetricGroup, path string) (*FixtureProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	players := make(map[string]fixtureRecord)
	if err := yaml.Unmarshal(raw, &players); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	return &FixtureProvider{id: id, tier: tier, group: group, players: players}, nil
}

// ID implements Provider.
func (f *FixtureProvider) ID() string { return f.id }

// Tier implements Provider.
func (f *FixtureProvider) Tier() string { return f.tier }

// Group implements Provider.
func (f *FixtureProvider) Group() model.MetricGroup { return f.group }

// Fetch implements Provider.
func (f *FixtureProvider) Fetch(_ context.Context, playerID string) (model.SourceSnapshot, error) {
	rec, ok := f.players[playerID]
	if !ok {
		return model.SourceSnapshot{}, fmt.Errorf("player %q not in fixture %s: %w", playerID, f.id, ErrNoData)
	}

	return model.SourceSnapshot{
		SourceID:    f.id,
		PlayerID:    playerID,
		MetricGroup: f.group,
		Values:      rec.Values,
		ObservedAt:  rec.ObservedAt,
		SampleSize:  rec.SampleSize,
	}, nil
}

// defaultHTTPTimeout bounds one stats endpoint round trip; the store owns
// retry on top of it.
const defaultHTTPTimeout = 10 * time.Second

// statsRecord is one player's stats as served by an HTTP stats endpoint.
type statsRecord struct {
	Values     map[string]float64 `json:"values"`
	ObservedAt time.Time          `json:"observed_at"`
	SampleSize int                `json:"sample_size"`
}

// HTTPProvider fetches snapshots from a JSON stats endpoint at
// {baseURL}/{playerID}.
type HTTPProvider struct {
	id      string
	tier    string
	group   model.MetricGroup
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider over a stats endpoint base URL.
func NewHTTPProvider(id, tier string, group model.MetricGroup, baseURL string) (*HTTPProvider, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid stats endpoint %q for source %s", baseURL, id)
	}
	return &HTTPProvider{
		id:      id,
		tier:    tier,
		group:   group,
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

// ID implements Provider.
func (h *HTTPProvider) ID() string { return h.id }

// Tier implements Provider.
func (h *HTTPProvider) Tier() string { return h.tier }

// Group implements Provider.
func (h *HTTPProvider) Group() model.MetricGroup { return h.group }

// Fetch implements Provider. A 404 means the source has no record for the
// player; any other failure is transient and retryable by the store.
func (h *HTTPProvider) Fetch(ctx context.Context, playerID string) (model.SourceSnapshot, error) {
	endpoint := h.baseURL + "/" + url.PathEscape(playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.SourceSnapshot{}, fmt.Errorf("building request for %s: %w", h.id, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return model.SourceSnapshot{}, fmt.Errorf("fetching %s: %w: %w", endpoint, ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.SourceSnapshot{}, fmt.Errorf("player %q not known to %s: %w", playerID, h.id, ErrNoData)
	case resp.StatusCode != http.StatusOK:
		return model.SourceSnapshot{}, fmt.Errorf("%s returned %d: %w", h.id, resp.StatusCode, ErrSourceUnavailable)
	}

	var rec statsRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return model.SourceSnapshot{}, fmt.Errorf("decoding %s response: %w: %w", h.id, ErrSourceUnavailable, err)
	}

	return model.SourceSnapshot{
		SourceID:    h.id,
		PlayerID:    playerID,
		MetricGroup: h.group,
		Values:      rec.Values,
		ObservedAt:  rec.ObservedAt,
		SampleSize:  rec.SampleSize,
	}, nil
}
