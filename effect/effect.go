// Package effect implements the permission gate (component F): the set
// of side-effecting capabilities currently granted to the executing
// function, and the check every `start`, `await`, `wait` and
// effect-declaring built-in performs before running.
package effect

import (
	"context"

	corelang "github.com/dshills/corelang-go"
)

// Reserved effect names (spec §6). Others are permitted and treated
// uniformly: the gate never special-cases an effect name beyond Async,
// which start/await/wait require explicitly.
const (
	IO    = "IO"
	Async = "Async"
	CPU   = "CPU"
	Net   = "Net"
)

// Set is an immutable permission set. The zero value is the empty set.
type Set struct {
	names map[string]struct{}
}

// NewSet builds a Set from a list of effect names.
func NewSet(names ...string) Set {
	s := Set{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// Has reports whether name is permitted.
func (s Set) Has(name string) bool {
	if s.names == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// HasAll reports whether every name in names is permitted.
func (s Set) HasAll(names []string) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// Names returns the permitted effect names in no particular order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	return out
}

type contextKey struct{}

// WithSet returns a context carrying the given permission set, replacing
// whatever set was previously attached. Calling a closure replaces the
// permission set with the callee's declared effects for the duration of
// its body; the caller restores its own set by re-attaching the context
// it held before the call (see interp's call-boundary handling).
func WithSet(ctx context.Context, s Set) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the permission set attached to ctx, or the empty
// set if none was attached.
func FromContext(ctx context.Context) Set {
	s, _ := ctx.Value(contextKey{}).(Set)
	return s
}

// Require returns an EffectViolation error if name is not permitted by
// the set attached to ctx.
func Require(ctx context.Context, name string) error {
	if !FromContext(ctx).Has(name) {
		return corelang.EffectViolation(name)
	}
	return nil
}

// RequireAll checks a list of declared required effects (used before
// invoking a built-in that declares effects).
func RequireAll(ctx context.Context, names []string) error {
	for _, n := range names {
		if err := Require(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
