package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// NewEnvironment creates the CEL environment conditions compile in. It
// declares path, the URL without its query, and params, the parameters
// the proxy was handed.
func NewEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("path", cel.StringType),
		cel.Variable("params", cel.MapType(cel.StringType, cel.StringType)),
	)
}

// Condition is a compiled boolean CEL expression.
type Condition struct {
	expression string
	program    cel.Program
}

// CompileCondition compiles expression in env. The expression must
// evaluate to a bool.
func CompileCondition(env *cel.Env, expression string) (*Condition, error) {
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile condition %q: %w", expression, issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("condition %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for condition %q: %w", expression, err)
	}

	return &Condition{expression: expression, program: program}, nil
}

// Expression returns the source expression.
func (c *Condition) Expression() string {
	return c.expression
}

// Eval evaluates the condition.
func (c *Condition) Eval(path string, params map[string]string) (bool, error) {
	if params == nil {
		params = map[string]string{}
	}

	out, _, err := c.program.Eval(map[string]interface{}{
		"path":   path,
		"params": params,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate condition %q: %w", c.expression, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition %q returned %T, not bool", c.expression, out.Value())
	}
	return result, nil
}
