/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorSeverity represents the severity of validation errors
type ErrorSeverity int

const (
	SeverityError ErrorSeverity = iota
	SeverityWarning
)

// ValidationError represents a taxonomy validation error
type ValidationError struct {
	Severity ErrorSeverity
	Command  string
	Message  string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	sev := "ERROR"
	if e.Severity == SeverityWarning {
		sev = "WARNING"
	}
	return fmt.Sprintf("[%s] %s: %s", sev, e.Command, e.Message)
}

// CoreCommands maps each command the CLI must ship to its group.
func CoreCommands() map[string]CommandGroup {
	return map[string]CommandGroup{
		"run":      GroupBuild,
		"manifest": GroupBuild,
		"patch":    GroupBuild,
		"init":     GroupSupport,
		"config":   GroupSupport,
		"version":  GroupSupport,
	}
}

// Validate checks that every core command is registered in its group and
// that no command uses an unknown group. Results are sorted by command.
func Validate(registry *Registry) []ValidationError {
	var errs []ValidationError

	for name, group := range CoreCommands() {
		reg, ok := registry.GetCommand(name)
		if !ok {
			errs = append(errs, ValidationError{Severity: SeverityError, Command: name, Message: "core command is not registered"})
			continue
		}
		if reg.Group != group {
			errs = append(errs, ValidationError{
				Severity: SeverityError,
				Command:  name,
				Message:  fmt.Sprintf("incorrect group: expected %s, got %s", group, reg.Group),
			})
		}
	}

	known := map[CommandGroup]bool{}
	for _, g := range Groups() {
		known[g] = true
	}
	for name, reg := range registry.GetAllCommands() {
		if !known[reg.Group] {
			errs = append(errs, ValidationError{Severity: SeverityWarning, Command: name, Message: fmt.Sprintf("unknown group %s", reg.Group)})
		}
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Command < errs[j].Command })
	return errs
}

// FormatErrors formats validation errors for display
func FormatErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors found"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Found %d validation errors:\n", len(errs))
	for i, err := range errs {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}
	return builder.String()
}
