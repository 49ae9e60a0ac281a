package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/core/ports"
	apperrors "srtalert/pkg/errors"
	"srtalert/pkg/tracing"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// statsResponse is the subset of the SRT server stats document we consume
type statsResponse struct {
	Publishers map[string]publisherStats `json:"publishers"`
}

type publisherStats struct {
	Bitrate *float64 `json:"bitrate"`
	RTT     *float64 `json:"rtt"`
}

// Fetcher reads bitrate and RTT of one publisher from the stats endpoint.
// It is driven by the monitor loop and is not safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	url       string
	publisher string
	metrics   ports.AlertMetrics
	logger    *zap.SugaredLogger
	now       func() time.Time

	noStreamLogged bool
}

// NewFetcher creates a fetcher whose requests time out after timeout
func NewFetcher(url, publisher string, timeout time.Duration, metrics ports.AlertMetrics, logger *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		url:       url,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Fetch performs one request. Transport errors, non-2xx responses and
// malformed bodies come back as TRANSIENT_NETWORK errors. A publisher that
// is missing or has a null bitrate yields a sample without a stream.
func (f *Fetcher) Fetch(ctx context.Context) (domain.Sample, error) {
	ctx, span := tracing.TraceStatsFetch(ctx, f.publisher)
	defer span.End()

	start := f.now()
	sample, err := f.fetch(ctx)
	f.metrics.ObserveFetchDuration(f.now().Sub(start), err == nil)

	if err != nil {
		f.noStreamLogged = false
		tracing.RecordError(ctx, err)
		return domain.Sample{}, apperrors.NewTransientError(domain.TargetStats, err)
	}

	if !sample.HasStream() {
		if !f.noStreamLogged {
			f.logger.Infow("no stream detected, waiting for stream to start", "publisher", f.publisher)
			f.noStreamLogged = true
		}
	} else {
		f.noStreamLogged = false
	}

	tracing.AddSpanAttributes(ctx, tracing.HasStreamKey.Bool(sample.HasStream()))
	return sample, nil
}

func (f *Fetcher) fetch(ctx context.Context) (domain.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("failed to build stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.Sample{}, fmt.Errorf("stats request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return domain.Sample{}, fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	var body statsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return domain.Sample{}, fmt.Errorf("%w: %v", domain.ErrMalformedStats, err)
	}

	sample := domain.Sample{FetchedAt: f.now()}
	if pub, ok := body.Publishers[f.publisher]; ok {
		sample.Bitrate = pub.Bitrate
		if pub.RTT != nil {
			sample.RTT = *pub.RTT
		}
	}
	return sample, nil
}
