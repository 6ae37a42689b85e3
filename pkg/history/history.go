// Package history reads the training-history documents produced by a
// generative-model experiment: a JSON object with per-epoch train and
// validation loss series.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"github.com/killian31/SGDSlicedWasserstein/internal/config"
)

// ErrNoSeries is returned by Validate when a history carries neither a
// train nor a validation series.
var ErrNoSeries = errors.New("history: no loss series present")

// History is one experiment's loss curves. The two series are indexed by
// epoch and may have different lengths.
type History struct {
	TrainLoss []float64 `json:"train_loss"`
	ValidLoss []float64 `json:"valid_loss"`
}

// Validate rejects a history with no data points in either series.
func (h *History) Validate() error {
	if len(h.TrainLoss) == 0 && len(h.ValidLoss) == 0 {
		return ErrNoSeries
	}
	return nil
}

// Load reads a history document from a local JSON file. Files ending in
// ".gz" are decompressed transparently. I/O and parse errors are
// surfaced to the caller unrecovered.
func Load(path string) (*History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open compressed history: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var h History
	if err := sonic.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int("train_points", len(h.TrainLoss)).
		Int("valid_points", len(h.ValidLoss)).
		Msg("loaded training history")

	return &h, nil
}

// Client fetches history documents from an experiment-tracker endpoint.
type Client struct {
	client *resty.Client
}

// NewClient returns a Client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &Client{client: client}
}

// NewClientFromEnv builds a Client with the timeout configured in the
// environment (HISTORY_FETCH_TIMEOUT).
func NewClientFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadHistoryEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history config: %w", err)
	}
	return NewClient(cfg.FetchTimeout), nil
}

// Fetch retrieves a history document over HTTP. Non-2xx responses are
// returned as errors; nothing is retried.
func (c *Client) Fetch(ctx context.Context, url string) (*History, error) {
	var out History
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("history fetch failed")
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("url", url).Msg("history fetch non-2xx")
		return nil, fmt.Errorf("fetch history status %d: %s", resp.StatusCode(), resp.String())
	}

	return &out, nil
}
