package container

import (
	"errors"
	"strconv"
	"strings"
)

// Sentinel errors. Every typed error below matches exactly one of them
// through errors.Is.
var (
	// ErrEntryNotFound is returned by Get when nothing is registered for an
	// identifier and it cannot be auto-wired either.
	ErrEntryNotFound = errors.New("container: entry not found")

	// ErrBindingResolution is returned when an abstract cannot be built.
	ErrBindingResolution = errors.New("container: binding resolution failed")

	// ErrCyclicDependency is returned when an abstract depends on itself.
	ErrCyclicDependency = errors.New("container: cyclic dependency")

	// ErrSelfAlias is returned by Alias when an abstract is aliased to itself.
	ErrSelfAlias = errors.New("container: abstract aliased to itself")

	// ErrAliasCycle is returned by Alias when the new alias would close a loop.
	ErrAliasCycle = errors.New("container: alias cycle")
)

// ── EntryNotFoundError ────────────────────────────────────────────────────────

// EntryNotFoundError is returned by Get for identifiers the container knows
// nothing about. Err holds the underlying resolution failure.
type EntryNotFoundError struct {
	ID  string
	Err error
}

func (e *EntryNotFoundError) Error() string {
	return "container: no entry was found for identifier " + strconv.Quote(e.ID)
}

func (e *EntryNotFoundError) Unwrap() error        { return e.Err }
func (e *EntryNotFoundError) Is(target error) bool { return target == ErrEntryNotFound }

// ── BindingResolutionError ────────────────────────────────────────────────────

// BindingResolutionError reports why an abstract could not be built.
//
//	Laravel: Illuminate\Contracts\Container\BindingResolutionException
type BindingResolutionError struct {
	// Abstract is the identifier (or class) that failed.
	Abstract string

	// Message is the human readable reason, without the "container:" prefix.
	Message string

	// Stack lists the build frames, outermost first, at the time of failure.
	Stack []string

	// Err is the wrapped cause, if any.
	Err error
}

func (e *BindingResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("container: ")
	b.WriteString(e.Message)
	if len(e.Stack) > 0 {
		b.WriteString(" while building [")
		b.WriteString(strings.Join(e.Stack, ", "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *BindingResolutionError) Unwrap() error        { return e.Err }
func (e *BindingResolutionError) Is(target error) bool { return target == ErrBindingResolution }

// ── CyclicDependencyError ─────────────────────────────────────────────────────

// CyclicDependencyError is returned when Abstract is requested while it is
// already being built. Path is the chain of frames that led back to it.
type CyclicDependencyError struct {
	Abstract string
	Path     []string
}

func (e *CyclicDependencyError) Error() string {
	return "container: circular dependency detected while resolving [" +
		strings.Join(append(append([]string(nil), e.Path...), e.Abstract), " -> ") + "]"
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// ── Alias errors ──────────────────────────────────────────────────────────────

// SelfAliasError is returned by Alias("x", "x").
type SelfAliasError struct{ Abstract string }

func (e *SelfAliasError) Error() string {
	return "container: [" + e.Abstract + "] is aliased to itself"
}

func (e *SelfAliasError) Is(target error) bool { return target == ErrSelfAlias }

// AliasCycleError is returned when Alias would make the alias chain loop.
type AliasCycleError struct {
	Abstract string
	Alias    string
}

func (e *AliasCycleError) Error() string {
	return "container: aliasing [" + e.Abstract + "] as [" + e.Alias + "] creates a cycle"
}

func (e *AliasCycleError) Is(target error) bool { return target == ErrAliasCycle }
