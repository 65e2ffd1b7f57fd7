// Package exitcode provides standardized exit codes for cachestamp
package exitcode

// Exit codes for the cachestamp CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	DiagnosticError = 3 // recoverable build diagnostics were reported under --strict
	FileSystemError = 4 // script write-back or asset emission failed
	PermissionError = 6
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case DiagnosticError:
		return "Build diagnostics reported"
	case FileSystemError:
		return "File system error"
	case PermissionError:
		return "Permission error"
	default:
		return "Unknown error"
	}
}
