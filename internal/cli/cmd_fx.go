package cli

import (
	"context"
	"strings"

	"github.com/avharness/cutline/internal/action"
	"github.com/avharness/cutline/internal/config"
)

func cmdEffectAdd(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("effect-add", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	service := c.flagSet.StringP("service", "s", "", "Effect service name, e.g. brightness")
	effectID := c.flagSet.String("id", "", "Effect id (generated when omitted)")
	props := c.flagSet.StringArray("set", nil, "Property as key=value (repeatable)")

	if done, code := c.parse(o, "effect-add -p <project> --clip <sel> -s <service> [--set k=v]", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["service"] = *service

	if *effectID != "" {
		params["effect"] = *effectID
	}

	if properties := parseProps(*props); len(properties) > 0 {
		params["properties"] = properties
	}

	return runAction(ctx, o, deps, "effect.apply", params, *c.jsonOut)
}

func cmdEffectUpdate(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("effect-update", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	effectID := c.flagSet.String("id", "", "Effect id")
	props := c.flagSet.StringArray("set", nil, "Property as key=value (repeatable)")

	if done, code := c.parse(o, "effect-update -p <project> --clip <sel> --id <effect> --set k=v", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["effect"] = *effectID

	if properties := parseProps(*props); len(properties) > 0 {
		params["properties"] = properties
	}

	return runAction(ctx, o, deps, "effect.update", params, *c.jsonOut)
}

func cmdEffectRemove(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("effect-remove", true)
	clip := c.flagSet.String("clip", "", "Clip selector")
	effectID := c.flagSet.String("id", "", "Effect id")

	if done, code := c.parse(o, "effect-remove -p <project> --clip <sel> --id <effect>", args); done {
		return code
	}

	params := c.params(env)
	params["clip"] = *clip
	params["effect"] = *effectID

	return runAction(ctx, o, deps, "effect.remove", params, *c.jsonOut)
}

func cmdTransitionAdd(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("transition-add", true)
	from := c.flagSet.String("from", "", "Outgoing clip selector")
	to := c.flagSet.String("to", "", "Incoming clip selector")
	service := c.flagSet.StringP("service", "s", "", "Transition service (defaults to mix)")
	in := c.flagSet.Int64("in", 0, "Transition start frame")
	out := c.flagSet.Int64("out", 0, "Transition end frame (inclusive)")
	props := c.flagSet.StringArray("set", nil, "Property as key=value (repeatable)")

	if done, code := c.parse(o, "transition-add -p <project> --from <sel> --to <sel> --in n --out n", args); done {
		return code
	}

	params := c.params(env)
	params["from"] = *from
	params["to"] = *to
	params["in"] = *in
	params["out"] = *out

	if *service != "" {
		params["service"] = *service
	}

	if properties := parseProps(*props); len(properties) > 0 {
		params["properties"] = properties
	}

	return runAction(ctx, o, deps, "transition.apply", params, *c.jsonOut)
}

func cmdTransitionRemove(ctx context.Context, o *IO, _ config.Config, deps action.Deps, env map[string]string, args []string) int {
	c := newCommon("transition-remove", true)
	transitionID := c.flagSet.String("id", "", "Transition id")

	if done, code := c.parse(o, "transition-remove -p <project> --id <transition>", args); done {
		return code
	}

	params := c.params(env)
	params["transition"] = *transitionID

	return runAction(ctx, o, deps, "transition.remove", params, *c.jsonOut)
}

func parseProps(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}

	props := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		props[key] = value
	}

	return props
}
