package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"eventcatalog/internal/catalog"
	apperrors "eventcatalog/pkg/errors"
)

// listingProducer scrapes an aggregator listing page. Rows of the events
// table are lifted cell-by-cell into raw payloads: name, dates, audiences
// (comma separated), expected attendees. Field parsing is left to the
// normalizer so a half-broken row degrades to a dropped record, not a
// failed source.
type listingProducer struct {
	name    string
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// Payload keys produced by the listing scraper.
const (
	listingKeyName      = "name"
	listingKeyDates     = "dates"
	listingKeyAudiences = "audiences"
	listingKeyAttendees = "attendees"
)

var listingColumns = []string{listingKeyName, listingKeyDates, listingKeyAudiences, listingKeyAttendees}

func (p *listingProducer) Name() string {
	return p.name
}

func (p *listingProducer) Fetch(ctx context.Context) ([]catalog.RawRecord, error) {
	if err := wait(ctx, p.limiter); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSourceUnavailable).WithDetail("source", p.name)
	}

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

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSourceUnavailable).
			WithDetail("source", p.name).
			WithDetail("message", "listing page is not parseable HTML")
	}

	return p.parseRows(doc), nil
}

func (p *listingProducer) parseRows(doc *html.Node) []catalog.RawRecord {
	var records []catalog.RawRecord

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if payload := parseRow(n); payload != nil {
				records = append(records, catalog.RawRecord{Source: p.name, Payload: payload})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return records
}

// parseRow maps a table row's cells onto the listing columns by position.
// Header rows (th cells) and rows without an event name yield nil.
func parseRow(tr *html.Node) map[string]interface{} {
	payload := make(map[string]interface{}, len(listingColumns))
	tdIndex := 0

	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == "th" {
			return nil
		}
		if c.Data != "td" {
			continue
		}
		if tdIndex < len(listingColumns) {
			payload[listingColumns[tdIndex]] = collectText(c)
		}
		tdIndex++
	}

	name, _ := payload[listingKeyName].(string)
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return payload
}

func collectText(n *html.Node) string {
	var sb strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.TrimSpace(sb.String())
}
