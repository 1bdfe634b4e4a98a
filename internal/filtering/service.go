// Package filtering applies configured exclusion rules to fetched events
// before they reach the merge step. Curated events are never filtered.
package filtering

import (
	"context"
	"fmt"

	"eventcatalog/internal/catalog"
	"eventcatalog/internal/config"
	"eventcatalog/internal/logger"
	"eventcatalog/pkg/cel"
	"eventcatalog/pkg/metrics"
)

type errorHandlingStatus int

const (
	errorHandlingDeny errorHandlingStatus = iota
	errorHandlingAllow
)

const (
	statusPassed   = "passed"
	statusFiltered = "filtered"
)

// Rule is one boolean CEL expression a fetched event must satisfy.
type Rule struct {
	Name       string
	Expression string
}

type Service struct {
	rules     []Rule
	fallback  string
	evaluator *cel.Evaluator
	logger    logger.Logger
}

// NewService validates every configured rule up front so a bad expression
// fails the app at startup, not mid-run.
func NewService(cfg config.FilteringConfig, log logger.Logger) (*Service, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	rules := make([]Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		if err := evaluator.ValidateFilterExpression(rc.Expression); err != nil {
			return nil, fmt.Errorf("invalid filtering rule %q: %w", rc.Name, err)
		}
		rules = append(rules, Rule{Name: rc.Name, Expression: rc.Expression})
	}

	metrics.SetFilteringActiveRules(len(rules))

	return &Service{
		rules:     rules,
		fallback:  cfg.Fallback,
		evaluator: evaluator,
		logger:    log,
	}, nil
}

// Apply returns the events that pass every rule, preserving input order.
func (s *Service) Apply(ctx context.Context, source string, events []catalog.Event) []catalog.Event {
	if len(s.rules) == 0 {
		return events
	}

	kept := make([]catalog.Event, 0, len(events))
	for _, ev := range events {
		if s.passes(ctx, source, ev) {
			kept = append(kept, ev)
			metrics.EventsFilteredTotal.WithLabelValues(statusPassed).Inc()
		} else {
			metrics.EventsFilteredTotal.WithLabelValues(statusFiltered).Inc()
		}
	}
	return kept
}

func (s *Service) passes(ctx context.Context, source string, ev catalog.Event) bool {
	for _, rule := range s.rules {
		result, err := s.evaluator.EvaluateFilter(ctx, rule.Expression, ev, source)
		if err != nil {
			if s.handleEvaluationError(ctx, rule, ev, err) == errorHandlingDeny {
				return false
			}
			continue
		}

		if !result {
			s.logger.DebugwCtx(ctx, "Rule filtered event",
				"rule", rule.Name,
				"name", ev.Name,
			)
			return false
		}
	}
	return true
}

func (s *Service) handleEvaluationError(ctx context.Context, rule Rule, ev catalog.Event, err error) errorHandlingStatus {
	s.logger.ErrorwCtx(ctx, "Rule evaluation error",
		"rule", rule.Name,
		"name", ev.Name,
		"error", err,
	)

	if s.fallback == config.FallbackDeny {
		s.logger.WarnwCtx(ctx, "Evaluation error, dropping event (fallback: deny)",
			"rule", rule.Name,
			"name", ev.Name,
		)
		return errorHandlingDeny
	}

	s.logger.WarnwCtx(ctx, "Evaluation error, keeping event (fallback: allow)",
		"rule", rule.Name,
		"name", ev.Name,
	)
	return errorHandlingAllow
}

// RuleCount reports how many rules are active.
func (s *Service) RuleCount() int {
	return len(s.rules)
}
