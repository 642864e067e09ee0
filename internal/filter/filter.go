// Package filter evaluates operator-declared rules against structured
// events before they reach the writer. Rules are expressions compiled
// once at startup; a rule that fails to compile is rejected, a rule
// whose evaluation errors at runtime is disabled for the rest of the
// run rather than failing the pipeline.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/livp123/logvault/internal/config"
	"github.com/livp123/logvault/internal/event"
	"github.com/livp123/logvault/internal/metrics"
	"github.com/livp123/logvault/internal/parsers"
)

// Env is the expression environment for one event.
type Env struct {
	Category string
	Name     string
	Severity string
	Message  string
	Source   string
	IP       string
	Context  map[string]any
}

// Has reports whether the event's context carries the given key.
func (e *Env) Has(key string) bool {
	_, ok := e.Context[key]
	return ok
}

// Ctx returns a context value, or nil when absent.
func (e *Env) Ctx(key string) any {
	return e.Context[key]
}

var (
	regexCache sync.Map
)

// Match checks the event message against a regular expression.
func (e *Env) Match(pattern string) bool {
	cached, ok := regexCache.Load(pattern)
	if !ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		regexCache.Store(pattern, re)
		cached = re
	}
	return cached.(*regexp.Regexp).MatchString(e.Message)
}

// Log checks if the event message contains the given string (case insensitive).
func (e *Env) Log(s string) bool {
	return strings.Contains(strings.ToLower(e.Message), strings.ToLower(s))
}

type rule struct {
	id       string
	program  *vm.Program
	drop     bool
	severity event.Severity
	disabled bool
}

// Engine holds the compiled rule set.
type Engine struct {
	rules []rule
	log   *zap.SugaredLogger
}

// New compiles the configured rules. An invalid rule is a configuration
// error surfaced immediately, not at first match.
func New(cfgRules []config.FilterRule, log *zap.SugaredLogger) (*Engine, error) {
	eng := &Engine{log: log}
	for _, cr := range cfgRules {
		r := rule{id: cr.ID}
		switch cr.Action {
		case "drop":
			r.drop = true
		case "severity":
			sev, err := event.ParseSeverity(cr.Severity)
			if err != nil {
				return nil, fmt.Errorf("filter rule %q: %w", cr.ID, err)
			}
			r.severity = sev
		default:
			return nil, fmt.Errorf("filter rule %q: unknown action %q (want drop or severity)", cr.ID, cr.Action)
		}

		program, err := expr.Compile(cr.Expression, expr.Env(&Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("filter rule %q: compile: %w", cr.ID, err)
		}
		r.program = program
		eng.rules = append(eng.rules, r)
	}
	return eng, nil
}

// Len returns the number of configured rules.
func (eng *Engine) Len() int {
	if eng == nil {
		return 0
	}
	return len(eng.rules)
}

// Apply runs the rules against an event. source is the ingest source
// label the record will carry (e.g. "parser.auth.auth.log"). It
// returns false when a drop rule matched; severity rules mutate the
// event in place. The first matching drop rule wins.
func (eng *Engine) Apply(ev *parsers.Event, source string) bool {
	if eng == nil || len(eng.rules) == 0 {
		return true
	}

	env := &Env{
		Category: string(ev.Category),
		Name:     ev.Name,
		Severity: string(ev.Severity),
		Message:  ev.Message,
		Source:   source,
		IP:       ev.IPAddress,
		Context:  ev.Context,
	}

	for i := range eng.rules {
		r := &eng.rules[i]
		if r.disabled {
			continue
		}
		out, err := expr.Run(r.program, env)
		if err != nil {
			eng.log.Warnf("⚠️  Filter rule %q failed, disabling for this run: %v", r.id, err)
			r.disabled = true
			continue
		}
		matched, _ := out.(bool)
		if !matched {
			continue
		}
		if r.drop {
			metrics.EventsDropped.WithLabelValues(r.id).Inc()
			return false
		}
		ev.Severity = r.severity
		env.Severity = string(r.severity)
	}
	return true
}
