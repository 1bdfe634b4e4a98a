package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"eventcatalog/internal/catalog"
	apperrors "eventcatalog/pkg/errors"
)

// apiProducer pulls a JSON array of objects from an event API endpoint.
type apiProducer struct {
	name    string
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

func (p *apiProducer) Name() string {
	return p.name
}

func (p *apiProducer) Fetch(ctx context.Context) ([]catalog.RawRecord, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSourceUnavailable).WithDetail("source", p.name)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSourceUnavailable).WithDetail("source", p.name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.ErrSourceUnavailable.
			WithDetail("source", p.name).
			WithDetail("message", fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, p.url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSourceUnavailable).WithDetail("source", p.name)
	}

	var payloads []map[string]interface{}
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSourceUnavailable).
			WithDetail("source", p.name).
			WithDetail("message", "response is not a JSON array of objects")
	}

	records := make([]catalog.RawRecord, 0, len(payloads))
	for _, payload := range payloads {
		records = append(records, catalog.RawRecord{Source: p.name, Payload: payload})
	}
	return records, nil
}
