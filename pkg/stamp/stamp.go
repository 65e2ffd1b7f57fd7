// Package stamp runs the post-build step: build and emit the resources
// manifest, then bump the cache version in the service worker, emit the
// rewritten script and persist it.
//
// A run does read-modify-write on the script without locking. Two builds
// sharing one script path must not run concurrently.
package stamp

import (
	"context"
	"fmt"

	"github.com/fulmenhq/cachestamp/pkg/config"
	"github.com/fulmenhq/cachestamp/pkg/host"
	"github.com/fulmenhq/cachestamp/pkg/logger"
	"github.com/fulmenhq/cachestamp/pkg/manifest"
	"github.com/fulmenhq/cachestamp/pkg/patcher"
	"github.com/google/uuid"
)

// Report summarizes one run.
type Report struct {
	RunID        string            `json:"run_id"`
	Manifest     manifest.Manifest `json:"manifest"`
	ManifestPath string            `json:"manifest_path"`
	Assets       int               `json:"assets_listed"`
	// ScriptAsset is set once the rewritten script was emitted.
	ScriptAsset string `json:"script_asset,omitempty"`
	// Patch is nil when the script was not rewritten.
	Patch       *patcher.Result   `json:"patch,omitempty"`
	Written     bool              `json:"written"`
	DryRun      bool              `json:"dry_run"`
	Diagnostics []host.Diagnostic `json:"diagnostics,omitempty"`
}

// Stamper applies one set of Options. It holds no per-run state and may be
// reused for sequential builds.
type Stamper struct {
	opts  config.Options
	store host.ScriptStore
	newID func() string
}

// New returns a Stamper persisting the script through store.
func New(opts config.Options, store host.ScriptStore) *Stamper {
	return &Stamper{opts: opts, store: store, newID: uuid.NewString}
}

// Options returns the settings the Stamper was built with.
func (s *Stamper) Options() config.Options { return s.opts }

// Apply runs the full step against comp. Only listing, emission and
// write-back failures are returned; problems with the script itself are
// reported through comp and recorded in the Report.
func (s *Stamper) Apply(ctx context.Context, comp host.Compilation) (Report, error) {
	report := Report{
		RunID:        s.newID(),
		ManifestPath: s.opts.ManifestAssetPath(),
		DryRun:       s.opts.DryRun,
	}
	runID := logger.String("run_id", report.RunID)

	m, encoded, listed, err := s.build(ctx, comp)
	if err != nil {
		return report, err
	}
	report.Manifest = m
	report.Assets = listed
	logger.Debug("Built resources manifest", runID,
		logger.Int("assets", listed), logger.Int("selected", m.Count()), logger.String("ceiling", s.opts.Ceiling.String()),
		logger.Strings("groups", m.Labels()))

	if s.opts.DryRun {
		logger.Info("Would emit manifest", runID, logger.String("path", report.ManifestPath), logger.Int("bytes", len(encoded)))
	} else if err := comp.EmitAsset(report.ManifestPath, encoded); err != nil {
		return report, &EmitError{Name: report.ManifestPath, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	text, err := s.store.ReadText(s.opts.ScriptPath)
	if err != nil {
		s.diagnose(&report, comp, &ScriptReadError{Path: s.opts.ScriptPath, Err: err})
		return report, nil
	}

	res, err := patcher.Patch(text, s.opts.Declaration, s.opts.Handler, m)
	if err != nil {
		if !patcher.IsRecoverable(err) {
			return report, err
		}
		s.diagnose(&report, comp, err)
		return report, nil
	}
	report.Patch = &res
	if res.Extra > 0 {
		logger.Warn("Additional version declarations left unchanged", runID,
			logger.String("identifier", s.opts.Declaration.Identifier), logger.Int("count", res.Extra))
	}

	scriptAsset := s.opts.ScriptAssetPath()
	if s.opts.DryRun {
		logger.Info("Would update cache version", runID,
			logger.String("script", s.opts.ScriptPath), logger.String("from", res.Previous), logger.String("to", res.Next))
		return report, nil
	}

	if err := comp.EmitAsset(scriptAsset, []byte(res.Text)); err != nil {
		return report, &EmitError{Name: scriptAsset, Err: err}
	}
	report.ScriptAsset = scriptAsset

	if err := s.store.WriteText(s.opts.ScriptPath, res.Text); err != nil {
		return report, &ScriptWriteError{Path: s.opts.ScriptPath, Err: err}
	}
	report.Written = true
	logger.Info("Updated cache version", runID,
		logger.String("script", s.opts.ScriptPath), logger.String("from", res.Previous),
		logger.String("to", res.Next), logger.String("handler", res.Handler))
	return report, nil
}

// Manifest lists and selects assets without emitting anything.
func (s *Stamper) Manifest(ctx context.Context, comp host.Compilation) (manifest.Manifest, []byte, error) {
	m, encoded, _, err := s.build(ctx, comp)
	return m, encoded, err
}

func (s *Stamper) build(ctx context.Context, comp host.Compilation) (manifest.Manifest, []byte, int, error) {
	if err := ctx.Err(); err != nil {
		return manifest.Manifest{}, nil, 0, err
	}
	assets, err := comp.Assets()
	if err != nil {
		return manifest.Manifest{}, nil, 0, &ListError{Err: err}
	}
	m := manifest.Build(assets, s.opts.Rule, s.opts.Ceiling)
	encoded, err := manifest.Encode(m, s.opts.Format)
	if err != nil {
		return manifest.Manifest{}, nil, 0, fmt.Errorf("encode manifest: %w", err)
	}
	return m, encoded, len(assets), nil
}

func (s *Stamper) diagnose(report *Report, comp host.Compilation, err error) {
	comp.ReportError(err)
	report.Diagnostics = append(report.Diagnostics, host.Diagnostic{Message: err.Error(), Err: err})
	logger.Warn("Service worker not updated", logger.String("run_id", report.RunID), logger.Err(err))
}
