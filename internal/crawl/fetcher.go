package crawl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// FetcherConfig controls collector behavior.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// CollyFetcher implements Fetcher using the Colly collector. Each call clones
// the base collector, waits out the politeness delay, and issues a single
// conditional GET. The frontier owns revisit dedup, so the collector allows
// URL revisits; robots handling is out of scope for this crawler.
type CollyFetcher struct {
	baseCollector *colly.Collector
	delay         Delayer
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher.
func NewCollyFetcher(cfg FetcherConfig, delay Delayer, logger *zap.Logger) *CollyFetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(timeout)

	return &CollyFetcher{
		baseCollector: base,
		delay:         delay,
		logger:        logger,
	}
}

// Fetch issues a conditional GET for url. Stored validators, when present,
// are sent as If-None-Match / If-Modified-Since so the origin can answer 304.
func (f *CollyFetcher) Fetch(ctx context.Context, url, etag, lastModified string) (FetchResult, error) {
	f.delay.Wait(ctx)
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}

	collector := f.baseCollector.Clone()

	var (
		result    FetchResult
		gotStatus bool
		respErr   error
	)

	collector.OnRequest(func(r *colly.Request) {
		if etag != "" {
			r.Headers.Set("If-None-Match", etag)
		}
		if lastModified != "" {
			r.Headers.Set("If-Modified-Since", lastModified)
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		gotStatus = true
		result = resultFromResponse(r)
	})

	// Colly reports non-2xx statuses through OnError with the response
	// attached. Those are pipeline outcomes (304 skip, 404 error row), not
	// transport failures, so recover the status when one exists.
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			gotStatus = true
			result = resultFromResponse(r)
			return
		}
		respErr = err
	})

	done := make(chan error, 1)
	go func() {
		visitErr := collector.Visit(url)
		collector.Wait()
		done <- visitErr
	}()

	select {
	case <-ctx.Done():
		return FetchResult{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		if gotStatus {
			return result, nil
		}
		if respErr != nil {
			return FetchResult{}, fmt.Errorf("fetch %s: %w", url, respErr)
		}
		if visitErr != nil {
			return FetchResult{}, fmt.Errorf("fetch %s: %w", url, visitErr)
		}
		return FetchResult{}, fmt.Errorf("fetch %s: no response", url)
	}
}

func resultFromResponse(r *colly.Response) FetchResult {
	res := FetchResult{
		StatusCode: r.StatusCode,
		Body:       append([]byte(nil), r.Body...),
	}
	if r.Headers != nil {
		res.ETag = r.Headers.Get("ETag")
		res.LastModified = r.Headers.Get("Last-Modified")
	}
	return res
}
