package cli

import (
	"context"

	"github.com/avharness/cutline/internal/action"
	"github.com/avharness/cutline/internal/config"
)

func cmdInsertGap(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("insert-gap", true)
	track := c.flagSet.StringP("track", "t", "", "Track (id or name)")
	position := c.flagSet.Int64("at", 0, "Frame to open the gap at")
	length := c.flagSet.Int64("length", 0, "Gap length in frames")

	if done, code := c.parse(o, "insert-gap -p <project> -t <track> --at <frame> --length <frames>", args); done {
		return code
	}

	params := c.params(env)
	params["track"] = *track
	params["position"] = *position
	params["length"] = *length

	return runAction(ctx, o, deps, "track.insert-gap", params, *c.jsonOut)
}

func cmdRemoveGaps(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("remove-gaps", true)
	track := c.flagSet.StringP("track", "t", "", "Track (id or name)")

	if done, code := c.parse(o, "remove-gaps -p <project> -t <track>", args); done {
		return code
	}

	params := c.params(env)
	params["track"] = *track

	return runAction(ctx, o, deps, "track.remove-all-gaps", params, *c.jsonOut)
}

func cmdStitch(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("stitch", true)
	track := c.flagSet.StringP("track", "t", "", "Track (id or name)")
	producers := c.flagSet.StringArray("producer", nil, "Producer to append, in order (repeatable)")
	position := c.flagSet.Int64("at", 0, "Start frame (defaults to after the last clip)")
	gap := c.flagSet.Int64("gap", 0, "Frames between stitched clips")
	duration := c.flagSet.Int64("duration", 0, "Frames per clip (defaults to each producer's full length)")

	if done, code := c.parse(o, "stitch -p <project> -t <track> --producer <id>...", args); done {
		return code
	}

	params := c.params(env)
	params["track"] = *track
	params["producers"] = *producers
	params["gap"] = *gap

	if c.flagSet.Changed("at") {
		params["position"] = *position
	}

	if c.flagSet.Changed("duration") {
		params["duration"] = *duration
	}

	return runAction(ctx, o, deps, "track.stitch", params, *c.jsonOut)
}

func cmdGroup(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("group", true)
	clips := c.flagSet.StringArray("clip", nil, "Clip selector (repeatable, at least two)")
	group := c.flagSet.StringP("group", "g", "", "Group id (generated when omitted)")

	if done, code := c.parse(o, "group -p <project> --clip <sel> --clip <sel>", args); done {
		return code
	}

	params := c.params(env)
	params["clips"] = *clips

	if *group != "" {
		params["group"] = *group
	}

	return runAction(ctx, o, deps, "group.create", params, *c.jsonOut)
}

func cmdUngroup(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("ungroup", true)
	group := c.flagSet.StringP("group", "g", "", "Group id to dissolve")

	if done, code := c.parse(o, "ungroup -p <project> -g <group>", args); done {
		return code
	}

	params := c.params(env)
	params["group"] = *group

	return runAction(ctx, o, deps, "group.dissolve", params, *c.jsonOut)
}
