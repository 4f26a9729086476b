// Package governance decides which tools the agent may use at any moment.
package governance

import (
	"context"
	"fmt"
	"regexp"
	"sync"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of a tool call to be evaluated.
type Request struct {
	Tool      string
	Arguments string
	ChatID    string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// Gate evaluates tool calls against standing deny rules and carries the
// per-step tool restriction. The restriction is the only mutable state
// shared between the executor and the loop; it is owned by one step
// invocation at a time and released through the func Restrict returns.
type Gate struct {
	mu          sync.Mutex
	deniedTools map[string]bool
	deniedRegex []*regexp.Regexp
	restricted  map[string]bool
}

func NewGate() *Gate {
	return &Gate{
		deniedTools: make(map[string]bool),
		restricted:  make(map[string]bool),
	}
}

// DenyTool permanently blocks a tool by name.
func (g *Gate) DenyTool(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deniedTools[name] = true
}

// DenyArguments blocks any call whose argument payload matches pattern.
func (g *Gate) DenyArguments(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deniedRegex = append(g.deniedRegex, re)
	return nil
}

// Restrict hides a tool family for the duration of one step and returns
// the release func that restores it. Release is idempotent; callers defer
// it so the restriction never leaks past the step, whatever the exit path.
func (g *Gate) Restrict(family string) func() {
	g.mu.Lock()
	g.restricted[family] = true
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.restricted, family)
			g.mu.Unlock()
		})
	}
}

// Restricted reports whether the named tool family is currently hidden.
func (g *Gate) Restricted(family string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.restricted[family]
}

// Evaluate applies the standing deny rules to one tool call.
func (g *Gate) Evaluate(ctx context.Context, req Request) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.deniedTools[req.Tool] {
		return Result{
			Effect: EffectDeny,
			Reason: fmt.Sprintf("Tool '%s' is restricted by system policy", req.Tool),
		}, nil
	}
	for _, re := range g.deniedRegex {
		if re.MatchString(req.Arguments) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Arguments match restricted pattern: %s", re.String()),
			}, nil
		}
	}
	return Result{Effect: EffectAllow, Reason: "Approved by default policy"}, nil
}
