package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"eventcatalog/internal/catalog"
)

// Evaluator compiles and runs CEL expressions over canonical event records.
type Evaluator struct {
	env *cel.Env
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("dates", cel.StringType),
		cel.Variable("source", cel.StringType),
		cel.Variable("audiences", cel.ListType(cel.StringType)),
		cel.Variable("attendee_count", cel.IntType),
		cel.Variable("competitors", cel.ListType(cel.StringType)),
		cel.Variable("commercial_tier", cel.IntType),
		cel.Variable("prestige", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}
	return nil
}

func (e *Evaluator) ValidateFilterExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("CEL expression validation failed: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	return nil
}

// EvaluateFilter runs a boolean expression against an event. True means the
// event passes the rule.
func (e *Evaluator) EvaluateFilter(ctx context.Context, expression string, ev catalog.Event, source string) (bool, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return false, fmt.Errorf("filter expression must return bool, got %v", ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to create CEL program: %w", err)
	}

	result, _, err := program.ContextEval(ctx, eventVars(ev, source))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return bool, got %T", result.Value())
	}

	return boolVal, nil
}

func (e *Evaluator) CompileExpression(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return program, nil
}

func eventVars(ev catalog.Event, source string) map[string]interface{} {
	audiences := ev.Audiences
	if audiences == nil {
		audiences = []string{}
	}
	competitors := ev.CompetitorList
	if competitors == nil {
		competitors = []string{}
	}

	return map[string]interface{}{
		"name":            ev.Name,
		"dates":           ev.Dates,
		"source":          source,
		"audiences":       audiences,
		"attendee_count":  ev.AttendeeCount,
		"competitors":     competitors,
		"commercial_tier": ev.CommercialTier,
		"prestige":        ev.Prestige,
	}
}
