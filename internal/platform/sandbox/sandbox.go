// Package sandbox runs model-synthesized Go retrieval routines in an
// embedded interpreter. The routines are untrusted: imports are checked
// against an allow-list before evaluation, execution runs under a
// watchdog timeout, and panics are contained.
package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"finscout/internal/platform/errors"
	"finscout/internal/platform/logx"
)

// allowedImports are the packages a synthesized routine may use.
// net/http and net/url are deliberately included: the routines exist to
// fetch public pages. Filesystem, process and unsafe access stay out.
var allowedImports = map[string]bool{
	"bytes":          true,
	"encoding/json":  true,
	"errors":         true,
	"fmt":            true,
	"io":             true,
	"net/http":       true,
	"net/url":        true,
	"regexp":         true,
	"sort":           true,
	"strconv":        true,
	"strings":        true,
	"time":           true,
	"unicode":        true,
	"unicode/utf8":   true,
	"compress/gzip":  true,
	"html":           true,
	"encoding/xml":   true,
	"mime":           true,
	"path":           true,
}

// Executor evaluates one routine per call. Each call gets a fresh
// interpreter so routines cannot observe each other.
type Executor struct {
	logger logx.Logger
}

// NewExecutor creates a sandbox executor.
func NewExecutor(logger logx.Logger) *Executor {
	return &Executor{logger: logger.With("component", "sandbox")}
}

// Run evaluates the routine and returns the map it left in the
// package-level `result` binding. The contract for synthesized code:
//
//	package main with func main() assigning a map[string]string to the
//	package-level variable `result`.
//
// A missing binding, wrong shape, rejected import, panic or timeout all
// return a nil map with an ErrExecutionFailed-wrapped error; the caller
// treats every failure the same way and moves to the next attempt.
func (e *Executor) Run(ctx context.Context, code string) (map[string]string, error) {
	if err := validateImports(code); err != nil {
		return nil, errors.Wrap(errors.ErrExecutionFailed, err.Error())
	}

	type outcome struct {
		result map[string]string
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: errors.Wrapf(errors.ErrExecutionFailed, "routine panicked: %v", r)}
			}
		}()
		res, err := e.eval(code)
		done <- outcome{result: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		return o.result, nil
	case <-ctx.Done():
		// The interpreter goroutine is abandoned; with network calls
		// capped at a few seconds inside the routine it finishes soon
		// after and its result is discarded.
		e.logger.Warn("routine execution timed out")
		return nil, errors.Wrap(errors.ErrExecutionFailed, "execution timed out")
	}
}

func (e *Executor) eval(code string) (map[string]string, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrap(errors.ErrExecutionFailed, "failed to load stdlib symbols")
	}

	if _, err := i.Eval(wrapCode(code)); err != nil {
		return nil, errors.Wrapf(errors.ErrExecutionFailed, "evaluation failed: %v", err)
	}

	// The routine evaluates in the interpreter's current scope, so the
	// binding is read unqualified rather than through a package selector.
	v, err := i.Eval("result")
	if err != nil {
		return nil, errors.Wrap(errors.ErrExecutionFailed, "routine left no result binding")
	}

	return coerceResult(v.Interface())
}

// coerceResult accepts the shapes an interpreted routine can plausibly
// produce for `result` and normalizes them to map[string]string.
func coerceResult(raw interface{}) (map[string]string, error) {
	switch m := raw.(type) {
	case map[string]string:
		if m == nil {
			return nil, errors.Wrap(errors.ErrExecutionFailed, "result binding is nil")
		}
		return m, nil
	case map[string]interface{}:
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out, nil
	default:
		return nil, errors.Wrapf(errors.ErrExecutionFailed, "result has unexpected type %T", raw)
	}
}

// validateImports rejects code importing anything outside the
// allow-list. Parsing is line-based on purpose: the interpreter will
// catch anything syntactically exotic, this gate only has to be
// conservative.
func validateImports(code string) error {
	var forbidden []string

	inBlock := false
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "import (") {
			inBlock = true
			continue
		}
		if inBlock {
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
				continue
			}
			if pkg := importPath(trimmed); pkg != "" && !allowedImports[pkg] {
				forbidden = append(forbidden, pkg)
			}
			continue
		}
		if strings.HasPrefix(trimmed, "import ") {
			if pkg := importPath(strings.TrimPrefix(trimmed, "import ")); pkg != "" && !allowedImports[pkg] {
				forbidden = append(forbidden, pkg)
			}
		}
	}

	if len(forbidden) > 0 {
		return fmt.Errorf("forbidden imports: %s", strings.Join(forbidden, ", "))
	}
	return nil
}

// importPath extracts the quoted path from an import line, handling
// aliased imports ("x \"net/http\"").
func importPath(line string) string {
	start := strings.Index(line, `"`)
	if start < 0 {
		return ""
	}
	rest := line[start+1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// wrapCode ensures the routine is a complete main package.
func wrapCode(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return "package main\n\n" + code
}
