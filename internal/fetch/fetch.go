// Package fetch pulls raw event records from configured external sources.
// Producers never interpret records beyond lifting them into the tagged
// RawRecord form; interpretation belongs to the normalizer.
package fetch

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/config"
)

// Producer fetches the raw records of a single source.
type Producer interface {
	Name() string
	Fetch(ctx context.Context) ([]catalog.RawRecord, error)
}

// NewProducer builds a producer for one source definition. The limiter is
// shared across sources to bound total outbound request rate.
func NewProducer(cfg config.SourceConfig, limiter *rate.Limiter) (Producer, error) {
	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	switch cfg.Type {
	case config.SourceTypeAPI:
		return &apiProducer{name: cfg.Name, url: cfg.URL, client: client, limiter: limiter}, nil
	case config.SourceTypeListing:
		return &listingProducer{name: cfg.Name, url: cfg.URL, client: client, limiter: limiter}, nil
	default:
		return nil, fmt.Errorf("unknown source type %q for source %q", cfg.Type, cfg.Name)
	}
}

// NewProducers builds one producer per configured source, in config order,
// optionally wrapping each in a circuit breaker.
func NewProducers(sources []config.SourceConfig, fetchCfg config.FetchConfig, cbCfg *config.CircuitBreakerConfig) ([]Producer, error) {
	limiter := rate.NewLimiter(rate.Limit(fetchCfg.RateLimitRPS), fetchCfg.RateLimitBurst)

	producers := make([]Producer, 0, len(sources))
	for _, src := range sources {
		p, err := NewProducer(src, limiter)
		if err != nil {
			return nil, err
		}
		if cbCfg != nil && cbCfg.Enabled {
			p = WrapWithCircuitBreaker(p, *cbCfg)
		}
		producers = append(producers, p)
	}
	return producers, nil
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
