package cli

import (
	"context"
	"encoding/json"

	"github.com/avharness/cutline/internal/action"
	"github.com/avharness/cutline/internal/config"
)

func cmdCreate(ctx context.Context, o *IO, cfg config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("create", false)
	fps := c.flagSet.Float64("fps", cfg.FPS, "Frames per second")
	width := c.flagSet.Int("width", cfg.Width, "Frame width in pixels")
	height := c.flagSet.Int("height", cfg.Height, "Frame height in pixels")
	overwrite := c.flagSet.Bool("overwrite", false, "Replace an existing project file")

	if done, code := c.parse(o, "create -p <project> [flags]", args); done {
		return code
	}

	params := c.params(env)
	params["fps"] = *fps
	params["width"] = *width
	params["height"] = *height
	params["overwrite"] = *overwrite

	return runAction(ctx, o, deps, "project.create", params, *c.jsonOut)
}

func cmdClone(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("clone", false)
	target := c.flagSet.StringP("target", "t", "", "Path for the copy")
	overwrite := c.flagSet.Bool("overwrite", false, "Replace an existing target")

	if done, code := c.parse(o, "clone -p <project> -t <target>", args); done {
		return code
	}

	params := c.params(env)
	params["target"] = *target
	params["overwrite"] = *overwrite

	return runAction(ctx, o, deps, "project.clone", params, *c.jsonOut)
}

func cmdInspect(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("inspect", false)

	if done, code := c.parse(o, "inspect -p <project>", args); done {
		return code
	}

	return runAction(ctx, o, deps, "project.inspect", c.params(env), *c.jsonOut)
}

func cmdValidate(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("validate", false)
	checkFiles := c.flagSet.Bool("check-files", false, "Also verify producer files exist")

	if done, code := c.parse(o, "validate -p <project> [--check-files]", args); done {
		return code
	}

	params := c.params(env)
	params["check_files"] = *checkFiles

	return runAction(ctx, o, deps, "project.validate", params, *c.jsonOut)
}

func cmdDiff(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("diff", false)
	other := c.flagSet.String("other", "", "Project file to compare against")

	if done, code := c.parse(o, "diff -p <project> --other <project>", args); done {
		return code
	}

	params := c.params(env)
	params["other"] = *other

	return runAction(ctx, o, deps, "project.diff", params, *c.jsonOut)
}

func cmdPlan(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("plan", false)
	editName := c.flagSet.String("action", "", "Edit action to preview, e.g. clip.move")
	rawParams := c.flagSet.String("params", "{}", "Edit parameters as a JSON object")

	if done, code := c.parse(o, "plan -p <project> --action <name> --params <json>", args); done {
		return code
	}

	var editParams map[string]any

	err := json.Unmarshal([]byte(*rawParams), &editParams)
	if err != nil {
		o.ErrPrintln("error: --params must be a JSON object:", err)

		return 1
	}

	params := c.params(env)
	params["action"] = *editName
	params["params"] = editParams

	return runAction(ctx, o, deps, "project.plan_edit", params, *c.jsonOut)
}

func cmdSnapshot(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("snapshot", false)
	description := c.flagSet.StringP("message", "m", "", "Checkpoint label")

	if done, code := c.parse(o, "snapshot -p <project> -m <label>", args); done {
		return code
	}

	params := c.params(env)
	params["description"] = *description

	return runAction(ctx, o, deps, "project.snapshot", params, *c.jsonOut)
}

func cmdHistory(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("history", false)
	stacks := c.flagSet.StringArray("stack", nil, "Stack to list: undo|redo|checkpoint (repeatable)")
	limit := c.flagSet.Int("limit", 0, "Show at most this many records")

	if done, code := c.parse(o, "history -p <project> [--stack undo]", args); done {
		return code
	}

	params := c.params(env)
	params["limit"] = *limit

	if len(*stacks) > 0 {
		params["stacks"] = *stacks
	}

	return runAction(ctx, o, deps, "project.history", params, *c.jsonOut)
}

func cmdUndo(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("undo", true)

	if done, code := c.parse(o, "undo -p <project>", args); done {
		return code
	}

	return runAction(ctx, o, deps, "project.undo", c.params(env), *c.jsonOut)
}

func cmdRedo(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("redo", true)

	if done, code := c.parse(o, "redo -p <project>", args); done {
		return code
	}

	return runAction(ctx, o, deps, "project.redo", c.params(env), *c.jsonOut)
}

func cmdProbe(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("probe", true)

	if done, code := c.parse(o, "probe -p <project>", args); done {
		return code
	}

	return runAction(ctx, o, deps, "asset.probe", c.params(env), *c.jsonOut)
}

func cmdManifest(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("manifest", true)

	if done, code := c.parse(o, "manifest -p <project> [-o <path>]", args); done {
		return code
	}

	return runAction(ctx, o, deps, "render.manifest", c.params(env), *c.jsonOut)
}

func cmdImport(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("import", true)
	id := c.flagSet.String("id", "", "Producer id")
	resource := c.flagSet.StringP("resource", "r", "", "Media path or URL")
	name := c.flagSet.StringP("name", "n", "", "Display name (defaults to id)")
	duration := c.flagSet.Int64("duration", 0, "Known duration in frames")

	if done, code := c.parse(o, "import -p <project> --id <id> -r <path>", args); done {
		return code
	}

	params := c.params(env)
	params["id"] = *id
	params["resource"] = *resource
	params["name"] = *name

	if c.flagSet.Changed("duration") {
		params["duration"] = *duration
	}

	return runAction(ctx, o, deps, "asset.add", params, *c.jsonOut)
}
