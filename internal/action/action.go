// Package action is the execution surface of the edit engine: one entry
// point, Execute, dispatching named actions with a JSON-compatible parameter
// bag. Mutating actions run load -> transaction -> edit -> validate ->
// commit -> save; every one of them honors dry_run (full run, nothing lands
// on disk) and output_path (write the result elsewhere, source untouched).
package action

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/avharness/cutline/internal/check"
	"github.com/avharness/cutline/internal/docio"
	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/history"
	"github.com/avharness/cutline/internal/probe"
	"github.com/avharness/cutline/internal/render"
	"github.com/avharness/cutline/internal/timeline"
	"github.com/avharness/cutline/internal/txn"
)

// Deps carries the collaborators an action run needs. Zero-value fields get
// safe defaults: a discard logger, no prober, no pruning.
type Deps struct {
	Log          *slog.Logger
	Prober       probe.Prober
	Checks       check.Options
	HistoryDir   string
	HistoryLimit int
}

// Result is the uniform success payload of every action.
type Result struct {
	Action     string         `json:"action"`
	Summary    map[string]any `json:"summary,omitempty"`
	SavedTo    string         `json:"saved_to,omitempty"`
	Changed    bool           `json:"changed"`
	Idempotent bool           `json:"idempotent,omitempty"`
	DryRun     bool           `json:"dry_run,omitempty"`
}

// Execute runs one named action. Errors are always typed *[edit.Error];
// inspect the code to decide whether a retry can help.
func Execute(ctx context.Context, name string, params Params, deps Deps) (*Result, *edit.Error) {
	if deps.Log == nil {
		deps.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if params == nil {
		params = Params{}
	}

	deps.Log.Debug("action dispatch", "action", name)

	if editActions[name] {
		return executeEdit(ctx, name, params, deps)
	}

	switch name {
	case "project.create":
		return executeCreate(params, deps)
	case "project.clone":
		return executeClone(params)
	case "project.inspect":
		return executeInspect(params)
	case "project.validate":
		return executeValidate(params, deps)
	case "project.diff":
		return executeDiff(params)
	case "project.plan_edit":
		return executePlanEdit(params, deps)
	case "project.snapshot":
		return executeSnapshot(ctx, params, deps)
	case "project.history":
		return executeHistory(ctx, params, deps)
	case "project.undo":
		return executeTimeTravel(ctx, params, deps, false)
	case "project.redo":
		return executeTimeTravel(ctx, params, deps, true)
	case "asset.probe":
		return executeProbe(params, deps)
	case "render.manifest":
		return executeManifest(params)
	default:
		return nil, edit.Errorf(edit.CodeInvalidInput, "unknown action %q", name)
	}
}

func executeEdit(ctx context.Context, name string, params Params, deps Deps) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	dryRun, err := params.Bool("dry_run")
	if err != nil {
		return nil, err
	}

	outputPath, err := params.Str("output_path")
	if err != nil {
		return nil, err
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	opts := []txn.Option{
		txn.WithValidation(checkOptionsFor(path, deps)),
		txn.WithLogger(deps.Log),
	}

	var store *history.Store

	if !dryRun {
		store, err = openStore(ctx, path, deps)
		if err != nil {
			return nil, err
		}

		defer func() { _ = store.Close() }()

		opts = append(opts, txn.WithHistory(store))
	}

	mgr := txn.New(model, opts...)

	tx, err := mgr.Begin(name)
	if err != nil {
		return nil, err
	}

	summary, changed, err := applyEdit(name, params, tx.Working())
	if err != nil {
		_ = mgr.Rollback()

		return nil, err
	}

	if dryRun {
		violations := check.Errors(check.Validate(tx.Working(), checkOptionsFor(path, deps)))

		_ = mgr.Rollback()

		if len(violations) > 0 {
			return nil, edit.Errorf(edit.CodeValidationFailed,
				"%s would leave the project invalid: %s", name, violations[0].Message)
		}

		return &Result{
			Action:     name,
			Summary:    summary,
			Changed:    changed,
			Idempotent: !changed,
			DryRun:     true,
		}, nil
	}

	if !changed {
		_ = mgr.Rollback()

		deps.Log.Info("action was a no-op", "action", name)

		return &Result{Action: name, Summary: summary, Idempotent: true}, nil
	}

	err = mgr.Commit(ctx)
	if err != nil {
		return nil, err
	}

	if deps.HistoryLimit > 0 {
		_, pruneErr := store.Prune(ctx, deps.HistoryLimit)
		if pruneErr != nil {
			deps.Log.Warn("history prune failed", "error", pruneErr)
		}
	}

	target := path
	if outputPath != "" {
		target = outputPath
	}

	err = docio.Save(mgr.Current(), target)
	if err != nil {
		return nil, err
	}

	return &Result{Action: name, Summary: summary, SavedTo: target, Changed: true}, nil
}

func executeCreate(params Params, deps Deps) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	overwrite, err := params.Bool("overwrite")
	if err != nil {
		return nil, err
	}

	if !overwrite {
		_, statErr := os.Stat(path)
		if statErr == nil {
			return nil, edit.Errorf(edit.CodeInvalidInput, "project %s already exists", path)
		}
	}

	fps, err := params.Float64("fps", 30)
	if err != nil {
		return nil, err
	}

	width, err := params.Int64("width", 1920)
	if err != nil {
		return nil, err
	}

	height, err := params.Int64("height", 1080)
	if err != nil {
		return nil, err
	}

	model := timeline.New(fps, int(width), int(height))

	err = docio.Save(model, path)
	if err != nil {
		return nil, err
	}

	deps.Log.Info("project created", "path", path, "fps", fps)

	return &Result{
		Action:  "project.create",
		Summary: map[string]any{"fps": fps, "width": width, "height": height},
		SavedTo: path,
		Changed: true,
	}, nil
}

func executeClone(params Params) (*Result, *edit.Error) {
	source, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	target, err := params.RequiredStr("target")
	if err != nil {
		return nil, err
	}

	overwrite, err := params.Bool("overwrite")
	if err != nil {
		return nil, err
	}

	err = docio.Clone(source, target, overwrite)
	if err != nil {
		return nil, err
	}

	return &Result{
		Action:  "project.clone",
		Summary: map[string]any{"source": source},
		SavedTo: target,
		Changed: true,
	}, nil
}

func executeInspect(params Params) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	tracks := 0
	clips := 0

	for _, seq := range model.Sequences {
		tracks += len(seq.Tracks)

		for _, track := range seq.Tracks {
			clips += len(track.Clips)
		}
	}

	return &Result{
		Action: "project.inspect",
		Summary: map[string]any{
			"fps":       model.FPS,
			"width":     model.Width,
			"height":    model.Height,
			"sequences": len(model.Sequences),
			"tracks":    tracks,
			"clips":     clips,
			"producers": len(model.Producers),
			"groups":    len(model.Groups),
			"duration":  model.Duration(),
		},
	}, nil
}

func executeValidate(params Params, deps Deps) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	checkFiles, err := params.Bool("check_files")
	if err != nil {
		return nil, err
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	opts := checkOptionsFor(path, deps)
	if checkFiles {
		opts.CheckFiles = true
	}

	violations := check.Validate(model, opts)

	errCount := len(check.Errors(violations))

	return &Result{
		Action: "project.validate",
		Summary: map[string]any{
			"violations": violationPayload(violations),
			"errors":     errCount,
			"warnings":   len(violations) - errCount,
			"valid":      errCount == 0,
		},
	}, nil
}

func executeDiff(params Params) (*Result, *edit.Error) {
	fromPath, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	toPath, err := params.RequiredStr("other")
	if err != nil {
		return nil, err
	}

	from, err := docio.Load(fromPath)
	if err != nil {
		return nil, err
	}

	to, err := docio.Load(toPath)
	if err != nil {
		return nil, err
	}

	report := check.Diff(from, to)

	return &Result{
		Action: "project.diff",
		Summary: map[string]any{
			"report":  report,
			"total":   report.Total(),
			"changed": !report.Empty(),
		},
	}, nil
}

// executePlanEdit previews one edit: it runs against a throwaway clone and
// reports the resulting diff plus any validation fallout, touching nothing.
func executePlanEdit(params Params, deps Deps) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	editName, err := params.RequiredStr("action")
	if err != nil {
		return nil, err
	}

	if !editActions[editName] {
		return nil, edit.Errorf(edit.CodeInvalidInput, "action %q cannot be planned", editName)
	}

	editParams, err := params.Bag("params")
	if err != nil {
		return nil, err
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	work := model.Clone()

	summary, changed, err := applyEdit(editName, editParams, work)
	if err != nil {
		return nil, err
	}

	violations := check.Errors(check.Validate(work, checkOptionsFor(path, deps)))

	report := check.Diff(model, work)

	return &Result{
		Action: "project.plan_edit",
		Summary: map[string]any{
			"edit":       editName,
			"summary":    summary,
			"diff":       report,
			"violations": violationPayload(violations),
			"valid":      len(violations) == 0,
		},
		Changed:    changed,
		Idempotent: !changed,
		DryRun:     true,
	}, nil
}

func executeSnapshot(ctx context.Context, params Params, deps Deps) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	description, err := params.Str("description")
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = "manual snapshot"
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, path, deps)
	if err != nil {
		return nil, err
	}

	defer func() { _ = store.Close() }()

	mgr := txn.New(model, txn.WithHistory(store), txn.WithLogger(deps.Log))

	err = mgr.Checkpoint(ctx, description)
	if err != nil {
		return nil, err
	}

	return &Result{
		Action:  "project.snapshot",
		Summary: map[string]any{"description": description},
		Changed: true,
	}, nil
}

func executeHistory(ctx context.Context, params Params, deps Deps) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	stackNames, err := params.StrSlice("stacks")
	if err != nil {
		return nil, err
	}

	limit, err := params.Int64("limit", 0)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, path, deps)
	if err != nil {
		return nil, err
	}

	defer func() { _ = store.Close() }()

	stacks := make([]history.Stack, 0, len(stackNames))
	for _, name := range stackNames {
		stacks = append(stacks, history.Stack(name))
	}

	records, listErr := store.List(ctx, stacks...)
	if listErr != nil {
		return nil, edit.Wrap(edit.CodeIO, listErr, "list history for %s", path)
	}

	if limit > 0 && int64(len(records)) > limit {
		records = records[:limit]
	}

	entries := make([]map[string]any, 0, len(records))

	for _, rec := range records {
		entries = append(entries, map[string]any{
			"seq":         rec.Seq,
			"id":          rec.ID,
			"stack":       string(rec.Stack),
			"description": rec.Description,
			"created_at":  rec.CreatedAt,
		})
	}

	return &Result{
		Action:  "project.history",
		Summary: map[string]any{"entries": entries, "count": len(entries)},
	}, nil
}

func executeTimeTravel(ctx context.Context, params Params, deps Deps, redo bool) (*Result, *edit.Error) {
	name := "project.undo"
	if redo {
		name = "project.redo"
	}

	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	dryRun, err := params.Bool("dry_run")
	if err != nil {
		return nil, err
	}

	outputPath, err := params.Str("output_path")
	if err != nil {
		return nil, err
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, path, deps)
	if err != nil {
		return nil, err
	}

	defer func() { _ = store.Close() }()

	if dryRun || outputPath != "" {
		// Peek without popping; neither a dry run nor a restore into a
		// separate file may advance the source document's stacks.
		stack := history.StackUndo
		if redo {
			stack = history.StackRedo
		}

		rec, latestErr := store.Latest(ctx, stack)

		switch {
		case errors.Is(latestErr, history.ErrEmpty):
			return nil, edit.Errorf(edit.CodeInvalidInput, "nothing to %s", strings.TrimPrefix(name, "project."))
		case latestErr != nil:
			return nil, edit.Wrap(edit.CodeIO, latestErr, "read history for %s", path)
		}

		if dryRun {
			return &Result{
				Action:  name,
				Summary: map[string]any{"description": rec.Description},
				Changed: true,
				DryRun:  true,
			}, nil
		}

		restored, decodeErr := timeline.Decode(rec.Data)
		if decodeErr != nil {
			return nil, edit.Wrap(edit.CodeInvalidInput, decodeErr, "restore snapshot")
		}

		if saveErr := docio.Save(restored, outputPath); saveErr != nil {
			return nil, saveErr
		}

		return &Result{
			Action:  name,
			Summary: map[string]any{"description": rec.Description},
			SavedTo: outputPath,
			Changed: true,
		}, nil
	}

	mgr := txn.New(model,
		txn.WithHistory(store),
		txn.WithValidation(checkOptionsFor(path, deps)),
		txn.WithLogger(deps.Log))

	if redo {
		err = mgr.Redo(ctx)
	} else {
		err = mgr.Undo(ctx)
	}

	if err != nil {
		return nil, err
	}

	err = docio.Save(mgr.Current(), path)
	if err != nil {
		return nil, err
	}

	return &Result{Action: name, SavedTo: path, Changed: true}, nil
}

func executeProbe(params Params, deps Deps) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	dryRun, err := params.Bool("dry_run")
	if err != nil {
		return nil, err
	}

	outputPath, err := params.Str("output_path")
	if err != nil {
		return nil, err
	}

	if deps.Prober == nil {
		return nil, edit.Errorf(edit.CodeInvalidInput, "no media prober configured")
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	updated, unreadable := probe.Refresh(model, deps.Prober)

	result := &Result{
		Action: "asset.probe",
		Summary: map[string]any{
			"updated":    updated,
			"unreadable": unreadable,
		},
		Changed:    len(updated) > 0,
		Idempotent: len(updated) == 0,
		DryRun:     dryRun,
	}

	if dryRun || len(updated) == 0 {
		return result, nil
	}

	target := path
	if outputPath != "" {
		target = outputPath
	}

	err = docio.Save(model, target)
	if err != nil {
		return nil, err
	}

	result.SavedTo = target

	return result, nil
}

func executeManifest(params Params) (*Result, *edit.Error) {
	path, err := params.RequiredStr("project")
	if err != nil {
		return nil, err
	}

	dryRun, err := params.Bool("dry_run")
	if err != nil {
		return nil, err
	}

	outputPath, err := params.Str("output_path")
	if err != nil {
		return nil, err
	}

	model, err := docio.Load(path)
	if err != nil {
		return nil, err
	}

	manifest, err := render.Build(model)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Action: "render.manifest",
		Summary: map[string]any{
			"manifest": manifest,
			"clips":    len(manifest.Clips),
			"duration": manifest.Duration,
		},
		DryRun: dryRun,
	}

	if outputPath != "" && !dryRun {
		data, marshalErr := json.MarshalIndent(manifest, "", "  ")
		if marshalErr != nil {
			return nil, edit.Wrap(edit.CodeInvalidInput, marshalErr, "serialize manifest")
		}

		err = docio.Write(outputPath, append(data, '\n'))
		if err != nil {
			return nil, err
		}

		result.SavedTo = outputPath
	}

	return result, nil
}

func openStore(ctx context.Context, projectPath string, deps Deps) (*history.Store, *edit.Error) {
	store, err := history.OpenIn(ctx, projectPath, deps.HistoryDir)

	switch {
	case errors.Is(err, history.ErrLocked):
		return nil, edit.Wrap(edit.CodeLocked, err, "project %s is being edited by another process", projectPath)
	case err != nil:
		return nil, edit.Wrap(edit.CodeIO, err, "open history for %s", projectPath)
	}

	return store, nil
}

func checkOptionsFor(projectPath string, deps Deps) check.Options {
	opts := deps.Checks
	if opts.BaseDir == "" {
		opts.BaseDir = filepath.Dir(projectPath)
	}

	return opts
}

func violationPayload(violations []check.Violation) []map[string]any {
	out := make([]map[string]any, 0, len(violations))

	for _, v := range violations {
		out = append(out, map[string]any{
			"severity": string(v.Severity),
			"kind":     v.Kind,
			"id":       v.ID,
			"message":  v.Message,
		})
	}

	return out
}
