/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BasicRegistration(t *testing.T) {
	registry := NewRegistry()
	testCmd := &cobra.Command{Use: "test", Short: "Test command"}

	require.NoError(t, registry.Register("test", GroupSupport, testCmd, "A test command"))

	cmd, exists := registry.GetCommand("test")
	require.True(t, exists)
	assert.Equal(t, "test", cmd.Name)
	assert.Equal(t, GroupSupport, cmd.Group)
	assert.Equal(t, "A test command", cmd.Description)
	assert.Same(t, testCmd, cmd.Command)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("run", GroupBuild, &cobra.Command{}, "first"))

	err := registry.Register("run", GroupBuild, &cobra.Command{}, "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_GroupsSortedByName(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"patch", "run", "manifest"} {
		require.NoError(t, registry.Register(name, GroupBuild, &cobra.Command{Use: name}, name))
	}
	require.NoError(t, registry.Register("version", GroupSupport, &cobra.Command{}, "version"))

	var names []string
	for _, c := range registry.GetCommandsByGroup(GroupBuild) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"manifest", "patch", "run"}, names)
	assert.Equal(t, map[CommandGroup]int{GroupBuild: 3, GroupSupport: 1}, registry.ListGroups())
	assert.Len(t, registry.GetAllCommands(), 4)
}

func TestGroupTitle(t *testing.T) {
	assert.Equal(t, "Build Commands", GroupBuild.Title())
	assert.Equal(t, "Support Commands", GroupSupport.Title())
	assert.Equal(t, "other", CommandGroup("other").Title())
}

func TestValidate(t *testing.T) {
	registry := NewRegistry()
	for name, group := range CoreCommands() {
		require.NoError(t, registry.Register(name, group, &cobra.Command{}, name))
	}
	assert.Empty(t, Validate(registry))
	assert.Equal(t, "No validation errors found", FormatErrors(nil))

	broken := NewRegistry()
	require.NoError(t, broken.Register("run", GroupSupport, &cobra.Command{}, "run"))
	require.NoError(t, broken.Register("extra", CommandGroup("misc"), &cobra.Command{}, "extra"))

	errs := Validate(broken)
	var runErr, extraErr *ValidationError
	missing := 0
	for i := range errs {
		switch errs[i].Command {
		case "run":
			runErr = &errs[i]
		case "extra":
			extraErr = &errs[i]
		default:
			missing++
		}
	}
	require.NotNil(t, runErr)
	assert.Contains(t, runErr.Message, "expected build")
	require.NotNil(t, extraErr)
	assert.Equal(t, SeverityWarning, extraErr.Severity)
	assert.Equal(t, 5, missing)
	assert.True(t, strings.HasPrefix(FormatErrors(errs), "Found 7 validation errors:"))
}
