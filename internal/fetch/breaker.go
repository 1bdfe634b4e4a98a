package fetch

import (
	"context"

	"github.com/sony/gobreaker"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/config"
	"eventcatalog/pkg/circuitbreaker"
)

// breakerProducer short-circuits a source that keeps failing so a flapping
// endpoint stops eating its timeout budget on every run.
type breakerProducer struct {
	inner   Producer
	wrapper *circuitbreaker.Wrapper
}

func WrapWithCircuitBreaker(p Producer, cfg config.CircuitBreakerConfig) Producer {
	cbConfig := circuitbreaker.DefaultConfig("fetch:" + p.Name())

	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 {
		minRequests := cfg.MinRequests
		if minRequests == 0 {
			minRequests = 3
		}
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.FailureRatio
		}
	}

	return &breakerProducer{
		inner:   p,
		wrapper: circuitbreaker.NewWrapper(cbConfig),
	}
}

func (b *breakerProducer) Name() string {
	return b.inner.Name()
}

func (b *breakerProducer) Fetch(ctx context.Context) ([]catalog.RawRecord, error) {
	result, err := b.wrapper.ExecuteWithContext(ctx, func() (interface{}, error) {
		return b.inner.Fetch(ctx)
	})

	b.wrapper.RecordRequest(err == nil)

	if err != nil {
		return nil, err
	}
	return result.([]catalog.RawRecord), nil
}
