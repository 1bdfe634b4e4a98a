// Package scoring converts an event's attributes into a strategic priority
// score and tier. Five weighted dimensions are evaluated independently and
// summed; the achievable total under these rules is 48 to 89, narrower than
// the nominal 0-100 scale. The tier thresholds below were calibrated against
// that real range, so the rules must not be rescaled.
package scoring

import (
	"eventcatalog/internal/catalog"
)

// Breakdown keys, one per scoring dimension.
const (
	DimensionAudience      = "audience"
	DimensionDecisionMaker = "decisionMaker"
	DimensionCompetitive   = "competitive"
	DimensionCommercial    = "commercial"
	DimensionInfluence     = "influence"
)

// Tier thresholds, inclusive at the boundary.
const (
	TierOneThreshold = 80
	TierTwoThreshold = 60
)

// Audience tags the scorer recognizes.
const (
	AudienceAdTech     = "Ad Tech"
	AudienceAffiliates = "Affiliates"
	AudienceEcommerce  = "E-commerce"
)

// Result carries a computed score, its derived tier and the per-dimension
// contributions.
type Result struct {
	Score     int
	Tier      int
	Breakdown map[string]int
}

// Score is a pure function: it never mutates the event and yields identical
// results for identical attribute values. Missing optional fields score as
// their zero values.
func Score(e catalog.Event) Result {
	breakdown := map[string]int{
		DimensionAudience:      audienceRelevance(e.Audiences),
		DimensionDecisionMaker: decisionMakerDensity(e.AttendeeCount),
		DimensionCompetitive:   competitivePresence(len(e.CompetitorList)),
		DimensionCommercial:    commercialOpportunity(e.CommercialTier),
		DimensionInfluence:     industryInfluence(e.Prestige),
	}

	total := 0
	for _, v := range breakdown {
		total += v
	}

	return Result{
		Score:     total,
		Tier:      TierFor(total),
		Breakdown: breakdown,
	}
}

// Apply overwrites the event's score, tier and breakdown in place. All
// other fields are left untouched.
func Apply(e *catalog.Event) {
	result := Score(*e)
	e.Score = result.Score
	e.Tier = result.Tier
	e.ScoreBreakdown = result.Breakdown
}

// TierFor classifies a total score: tier 1 at 80 and above, tier 2 at 60
// and above, tier 3 otherwise.
func TierFor(score int) int {
	switch {
	case score >= TierOneThreshold:
		return 1
	case score >= TierTwoThreshold:
		return 2
	default:
		return 3
	}
}

// Audience relevance, max 30 (band used: 18-25).
func audienceRelevance(audiences []string) int {
	hasEcommerce := false
	for _, a := range audiences {
		switch a {
		case AudienceAdTech, AudienceAffiliates:
			return 25
		case AudienceEcommerce:
			hasEcommerce = true
		}
	}
	if hasEcommerce {
		return 22
	}
	return 18
}

// Decision-maker density, max 25 (band used: 16-22).
func decisionMakerDensity(attendees int) int {
	switch {
	case attendees > 10000:
		return 22
	case attendees > 5000:
		return 19
	default:
		return 16
	}
}

// Competitive presence, max 20: four points per known competitor.
func competitivePresence(competitors int) int {
	v := competitors * 4
	if v > 20 {
		return 20
	}
	return v
}

// Commercial opportunity, max 15 (band used: 8-14). Tier 3 and unset share
// the floor.
func commercialOpportunity(tier int) int {
	switch tier {
	case catalog.CommercialTier1:
		return 14
	case catalog.CommercialTier2:
		return 11
	default:
		return 8
	}
}

// Industry influence, max 10 (band used: 6-8).
func industryInfluence(prestige float64) int {
	if prestige > 8 {
		return 8
	}
	return 6
}
