package stamp

import "fmt"

// ListError means the host could not list its assets. It aborts the run.
type ListError struct {
	Err error
}

func (e *ListError) Error() string { return fmt.Sprintf("list assets: %v", e.Err) }
func (e *ListError) Unwrap() error { return e.Err }

// EmitError means an output asset could not be registered. It aborts the run.
type EmitError struct {
	Name string
	Err  error
}

func (e *EmitError) Error() string { return fmt.Sprintf("emit %s: %v", e.Name, e.Err) }
func (e *EmitError) Unwrap() error { return e.Err }

// ScriptReadError is reported as a diagnostic; the manifest is still emitted.
type ScriptReadError struct {
	Path string
	Err  error
}

func (e *ScriptReadError) Error() string {
	return fmt.Sprintf("read service worker %s: %v", e.Path, e.Err)
}
func (e *ScriptReadError) Unwrap() error { return e.Err }

// ScriptWriteError means the rewritten script could not be persisted. It is
// fatal: the emitted script and the file on disk now disagree.
type ScriptWriteError struct {
	Path string
	Err  error
}

func (e *ScriptWriteError) Error() string {
	return fmt.Sprintf("write service worker %s: %v", e.Path, e.Err)
}
func (e *ScriptWriteError) Unwrap() error { return e.Err }
