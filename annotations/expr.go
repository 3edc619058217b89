package annotations

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr is a filter computed by an expression over the annotation term. The
// expression sees term, namespace and name, plus pattern(p, t) which applies
// an include-annotations pattern p to a term t, and yields true for
// annotations to keep:
//
//	namespace == "Core" || pattern("UI.*,-UI.Hidden", term)
//
// A failing evaluation keeps the annotation.
type Expr struct {
	src     string
	program *vm.Program

	mu       sync.Mutex
	patterns map[string]*Pattern
	err      error
}

func exprEnv(term string) map[string]any {
	ns, name := Split(term)
	return map[string]any{
		"term":      term,
		"namespace": ns,
		"name":      name,
	}
}

func CompileExpr(src string) (*Expr, error) {
	e := &Expr{src: src, patterns: map[string]*Pattern{}}
	opts := []expr.Option{
		expr.Env(exprEnv("")),
		expr.AsBool(),
		expr.Function("pattern", func(params ...any) (any, error) {
			p, err := e.pattern(params[0].(string))
			if err != nil {
				return nil, err
			}
			return !p.ShouldSkip(params[1].(string)), nil
		},
			new(func(string, string) bool)),
	}
	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("annotation filter %q: %w", src, err)
	}
	e.program = program
	return e, nil
}

func (e *Expr) pattern(src string) (*Pattern, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.patterns[src]; ok {
		return p, nil
	}
	p, err := ParsePattern(src)
	if err != nil {
		return nil, err
	}
	e.patterns[src] = p
	return p, nil
}

func (e *Expr) ShouldSkip(term string) bool {
	res, err := vm.Run(e.program, exprEnv(term))
	if err != nil {
		e.mu.Lock()
		e.err = err
		e.mu.Unlock()
		return false
	}
	keep, _ := res.(bool)
	return !keep
}

// Err returns the last evaluation error, if any.
func (e *Expr) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Expr) String() string {
	return e.src
}
