// Package patcher rewrites the cache version declaration of a service worker.
//
// The recognized grammar is one statement shape, "<keyword> <identifier> =
// <value>;", found by its first occurrence and bounded by the first ';' that
// follows. Nothing else in the script is parsed or touched.
package patcher

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fulmenhq/cachestamp/pkg/manifest"
)

const (
	DefaultKeyword    = "const"
	DefaultIdentifier = "CACHE_VERSION"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Declaration names the statement to rewrite.
type Declaration struct {
	Keyword    string
	Identifier string
}

// DefaultDeclaration is "const CACHE_VERSION".
func DefaultDeclaration() Declaration {
	return Declaration{Keyword: DefaultKeyword, Identifier: DefaultIdentifier}
}

// Validate checks both tokens are plain identifiers.
func (d Declaration) Validate() error {
	if !identPattern.MatchString(d.Keyword) {
		return fmt.Errorf("invalid declaration keyword %q", d.Keyword)
	}
	if !identPattern.MatchString(d.Identifier) {
		return fmt.Errorf("invalid declaration identifier %q", d.Identifier)
	}
	return nil
}

// Canonical is the single-space form written back by Patch.
func (d Declaration) Canonical() string {
	return d.Keyword + " " + d.Identifier
}

func (d Declaration) locator() *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^A-Za-z0-9_$])(` + regexp.QuoteMeta(d.Keyword) + `\s+` + regexp.QuoteMeta(d.Identifier) + `)(?:[^A-Za-z0-9_$]|$)`)
}

// Result describes one applied rewrite.
type Result struct {
	Text     string `json:"-"`
	Previous string `json:"previous"`
	Next     string `json:"next"`
	Handler  string `json:"handler"`
	// Start and End bound the rewritten statement in the input; End is the
	// index of its ';'.
	Start int `json:"start"`
	End   int `json:"end"`
	// Extra counts further declarations of the identifier left untouched.
	Extra int `json:"extra,omitempty"`
}

// Changed reports whether the value moved.
func (r Result) Changed() bool { return r.Previous != r.Next }

// Patch rewrites the first declaration in text with the value computed by
// handler. m is the manifest built in the same run and is only consulted by
// custom handlers.
//
// Only Increment requires the current value to be a base-10 integer. Custom
// handlers accept any current literal, so a quoted HASH or GIT_SHA value can
// be replaced on the next build.
func Patch(text string, decl Declaration, handler Handler, m manifest.Manifest) (Result, error) {
	if err := decl.Validate(); err != nil {
		return Result{}, err
	}

	loc, extra := locate(text, decl)
	if loc == nil {
		return Result{}, &DeclarationNotFoundError{Keyword: decl.Keyword, Identifier: decl.Identifier}
	}
	start, nameEnd := loc[0], loc[1]

	semi := strings.IndexByte(text[nameEnd:], ';')
	if semi < 0 {
		return Result{}, &MalformedDeclarationError{Identifier: decl.Identifier, Offset: start, Reason: "no terminating ';'"}
	}
	end := nameEnd + semi

	current, err := currentLiteral(text[nameEnd:end])
	if err != nil {
		return Result{}, &MalformedDeclarationError{Identifier: decl.Identifier, Offset: start, Reason: err.Error()}
	}

	next, err := handler.next(current, m)
	if err != nil {
		var malformed *MalformedDeclarationError
		if errors.As(err, &malformed) {
			malformed.Identifier = decl.Identifier
			malformed.Offset = start
		}
		return Result{}, err
	}

	var b strings.Builder
	b.Grow(len(text) + len(next))
	b.WriteString(text[:start])
	b.WriteString(decl.Canonical())
	b.WriteString(" = ")
	b.WriteString(next)
	b.WriteString(";")
	b.WriteString(text[end+1:])

	return Result{
		Text:     b.String(),
		Previous: current,
		Next:     next,
		Handler:  handler.Name(),
		Start:    start,
		End:      end,
		Extra:    extra,
	}, nil
}

// locate returns the [start, end) span of "<keyword> <identifier>" for the
// first declaration and the number of further declarations.
func locate(text string, decl Declaration) ([]int, int) {
	all := decl.locator().FindAllStringSubmatchIndex(text, -1)
	if len(all) == 0 {
		return nil, 0
	}
	return all[0][2:4], len(all) - 1
}

// currentLiteral extracts the trimmed text between '=' and the terminator.
func currentLiteral(span string) (string, error) {
	eq := strings.IndexByte(span, '=')
	if eq < 0 {
		return "", fmt.Errorf("missing '='")
	}
	if strings.TrimSpace(span[:eq]) != "" {
		return "", fmt.Errorf("unexpected %q before '='", strings.TrimSpace(span[:eq]))
	}
	literal := strings.TrimSpace(span[eq+1:])
	if literal == "" {
		return "", fmt.Errorf("missing value")
	}
	return literal, nil
}

// parseInteger accepts a base-10 integer literal, optionally signed.
func parseInteger(literal string) (int64, error) {
	n, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}
