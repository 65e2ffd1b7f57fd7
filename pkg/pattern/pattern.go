/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/

// Package pattern compiles the selection patterns used to pick assets for the
// resources manifest. A pattern is either a Go regular expression or a
// doublestar glob; both are validated when compiled so that a bad pattern
// surfaces at configuration time rather than in the middle of a build.
package pattern

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind identifies how a pattern is evaluated.
type Kind string

const (
	KindRegex Kind = "regex"
	KindGlob  Kind = "glob"
)

const (
	regexPrefix = "re:"
	globPrefix  = "glob:"
)

// DefaultSpec selects JavaScript and CSS assets.
const DefaultSpec = `re:\.(js|css)$`

// Matcher reports whether an asset name belongs to a selection.
type Matcher interface {
	Match(name string) bool
	Kind() Kind
	String() string
}

// CompileError describes a pattern that could not be compiled.
type CompileError struct {
	Spec   string
	Reason string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid pattern %q: %s: %v", e.Spec, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid pattern %q: %s", e.Spec, e.Reason)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compile parses a pattern spec.
//
//	re:<expr>    regular expression, unanchored like RegExp.test
//	/<expr>/     same, slash delimited
//	glob:<expr>  doublestar glob
//	<expr>       doublestar glob
//
// Globs without a slash match against the base name of the asset, so "*.js"
// selects "static/js/app.js".
func Compile(spec string) (Matcher, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return nil, &CompileError{Spec: spec, Reason: ErrEmptyPattern.Error()}
	}

	switch {
	case strings.HasPrefix(raw, regexPrefix):
		return compileRegex(spec, strings.TrimPrefix(raw, regexPrefix))
	case len(raw) >= 2 && strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/"):
		return compileRegex(spec, raw[1:len(raw)-1])
	case strings.HasPrefix(raw, globPrefix):
		return compileGlob(spec, strings.TrimPrefix(raw, globPrefix))
	default:
		return compileGlob(spec, raw)
	}
}

// MustCompile is Compile for patterns known at compile time.
func MustCompile(spec string) Matcher {
	m, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return m
}

type regexMatcher struct {
	spec string
	re   *regexp.Regexp
}

func compileRegex(spec, expr string) (Matcher, error) {
	if expr == "" {
		return nil, &CompileError{Spec: spec, Reason: ErrEmptyPattern.Error()}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &CompileError{Spec: spec, Reason: ReasonRegexCompileError, Err: err}
	}
	return &regexMatcher{spec: spec, re: re}, nil
}

func (m *regexMatcher) Match(name string) bool { return m.re.MatchString(name) }
func (m *regexMatcher) Kind() Kind             { return KindRegex }
func (m *regexMatcher) String() string         { return m.spec }

type globMatcher struct {
	spec     string
	glob     string
	baseOnly bool
}

func compileGlob(spec, glob string) (Matcher, error) {
	if glob == "" {
		return nil, &CompileError{Spec: spec, Reason: ErrEmptyPattern.Error()}
	}
	if strings.HasPrefix(glob, "!") {
		return nil, &CompileError{Spec: spec, Reason: ErrNegationNotSupported.Error()}
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, &CompileError{Spec: spec, Reason: ReasonGlobToRegexError}
	}
	return &globMatcher{spec: spec, glob: glob, baseOnly: !strings.Contains(glob, "/")}, nil
}

func (m *globMatcher) Match(name string) bool {
	target := strings.ReplaceAll(name, "\\", "/")
	if m.baseOnly {
		target = path.Base(target)
	}
	ok, err := doublestar.Match(m.glob, target)
	return err == nil && ok
}

func (m *globMatcher) Kind() Kind     { return KindGlob }
func (m *globMatcher) String() string { return m.spec }

// Explain renders a matcher as the regular expression it is equivalent to.
// Used by "config show --explain".
func Explain(m Matcher) string {
	switch v := m.(type) {
	case *regexMatcher:
		return v.re.String()
	case *globMatcher:
		re, err := GlobToRegexp(v.glob)
		if err != nil {
			return v.glob
		}
		if v.baseOnly {
			return "(^|/)" + re + "$"
		}
		return "^" + re + "$"
	default:
		return m.String()
	}
}
