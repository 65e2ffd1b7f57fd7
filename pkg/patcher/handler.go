package patcher

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fulmenhq/cachestamp/pkg/manifest"
)

// Func computes the next version from the manifest of the current build. The
// result is written into the script with fmt.Sprint.
type Func func(m manifest.Manifest) (interface{}, error)

// Handler decides the next version value. The zero Handler increments.
type Handler struct {
	name string
	fn   Func
}

// Increment adds one to the integer currently declared.
var Increment = Handler{name: HandlerIncrement}

// Custom wraps fn under a display name.
func Custom(name string, fn Func) Handler {
	if name == "" {
		name = "custom"
	}
	return Handler{name: name, fn: fn}
}

// Name is used in logs and diagnostics.
func (h Handler) Name() string {
	if h.name == "" {
		return HandlerIncrement
	}
	return h.name
}

// IsIncrement reports whether h is the increment policy.
func (h Handler) IsIncrement() bool { return h.fn == nil }

func (h Handler) next(current string, m manifest.Manifest) (string, error) {
	if h.fn == nil {
		n, err := parseInteger(current)
		if err != nil {
			return "", &MalformedDeclarationError{Reason: fmt.Sprintf("value %q is not an integer", current), Err: err}
		}
		if n == math.MaxInt64 {
			return "", &MalformedDeclarationError{Reason: fmt.Sprintf("value %q cannot be incremented", current)}
		}
		return strconv.FormatInt(n+1, 10), nil
	}

	v, err := h.fn(m)
	if err != nil {
		return "", &HandlerError{Handler: h.Name(), Err: err}
	}
	value := fmt.Sprint(v)
	if strings.TrimSpace(value) == "" || strings.ContainsAny(value, ";\r\n") {
		return "", &UnsafeValueError{Handler: h.Name(), Value: value}
	}
	return value, nil
}
