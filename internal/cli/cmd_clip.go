package cli

import (
	"context"

	"github.com/avharness/cutline/internal/action"
	"github.com/avharness/cutline/internal/config"
)

func cmdAdd(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("add", true)
	track := c.flagSet.StringP("track", "t", "", "Target track (id or name)")
	producer := c.flagSet.String("producer", "", "Producer to place (id or name)")
	position := c.flagSet.Int64("at", 0, "Timeline position in frames")
	in := c.flagSet.Int64("in", 0, "Source in point")
	out := c.flagSet.Int64("out", 0, "Source out point (inclusive)")

	if done, code := c.parse(o, "add -p <project> -t <track> --producer <id> --at <frame>", args); done {
		return code
	}

	params := c.params(env)
	params["track"] = *track
	params["producer"] = *producer
	params["position"] = *position

	if c.flagSet.Changed("in") {
		params["in"] = *in
	}

	if c.flagSet.Changed("out") {
		params["out"] = *out
	}

	return runAction(ctx, o, deps, "clip.add", params, *c.jsonOut)
}

func cmdMove(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("move", true)
	clip := c.flagSet.String("clip", "", "Clip selector (id, name, or track@frame)")
	track := c.flagSet.StringP("track", "t", "", "Target track for a cross-track move")
	position := c.flagSet.Int64("to", 0, "New position in frames")

	if done, code := c.parse(o, "move -p <project> --clip <sel> --to <frame>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["position"] = *position

	if *track != "" {
		params["track"] = *track
	}

	return runAction(ctx, o, deps, "clip.move", params, *c.jsonOut)
}

func cmdTrim(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("trim", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	in := c.flagSet.Int64("in", 0, "New source in point")
	out := c.flagSet.Int64("out", 0, "New source out point (inclusive)")

	if done, code := c.parse(o, "trim -p <project> --clip <sel> [--in n] [--out n]", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip

	if c.flagSet.Changed("in") {
		params["in"] = *in
	}

	if c.flagSet.Changed("out") {
		params["out"] = *out
	}

	return runAction(ctx, o, deps, "clip.trim", params, *c.jsonOut)
}

func cmdSplit(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("split", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	frame := c.flagSet.Int64("at", 0, "Timeline frame to cut at (strictly inside the clip)")

	if done, code := c.parse(o, "split -p <project> --clip <sel> --at <frame>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["frame"] = *frame

	return runAction(ctx, o, deps, "clip.split", params, *c.jsonOut)
}

func cmdRemove(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("remove", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	closeGap := c.flagSet.Bool("close-gap", false, "Shift later clips left to close the hole")

	if done, code := c.parse(o, "remove -p <project> --clip <sel> [--close-gap]", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["close_gap"] = *closeGap

	return runAction(ctx, o, deps, "clip.remove", params, *c.jsonOut)
}

func cmdRippleDelete(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("ripple-delete", true)
	clip := c.flagSet.String("clip", "", "Clip selector")

	if done, code := c.parse(o, "ripple-delete -p <project> --clip <sel>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip

	return runAction(ctx, o, deps, "clip.ripple-delete", params, *c.jsonOut)
}

func cmdNudge(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("nudge", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	delta := c.flagSet.Int64("by", 0, "Frames to shift (negative shifts left)")

	if done, code := c.parse(o, "nudge -p <project> --clip <sel> --by <frames>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["delta"] = *delta

	return runAction(ctx, o, deps, "clip.nudge", params, *c.jsonOut)
}

func cmdSlip(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("slip", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	delta := c.flagSet.Int64("by", 0, "Frames to slip the source window (clamped to media bounds)")

	if done, code := c.parse(o, "slip -p <project> --clip <sel> --by <frames>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["delta"] = *delta

	return runAction(ctx, o, deps, "clip.slip", params, *c.jsonOut)
}

func cmdSlide(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("slide", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	delta := c.flagSet.Int64("by", 0, "Frames to slide, trimming touching neighbors")

	if done, code := c.parse(o, "slide -p <project> --clip <sel> --by <frames>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["delta"] = *delta

	return runAction(ctx, o, deps, "clip.slide", params, *c.jsonOut)
}

func cmdTimeRemap(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("time-remap", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	speed := c.flagSet.Float64("speed", 1.0, "Playback speed factor (> 0)")

	if done, code := c.parse(o, "time-remap -p <project> --clip <sel> --speed <factor>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["speed"] = *speed

	return runAction(ctx, o, deps, "clip.time-remap", params, *c.jsonOut)
}
