package action

import (
	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/resolve"
	"github.com/avharness/cutline/internal/timeline"
)

// applyEdit runs one mutating edit against the given model in place. It is
// the shared core behind Execute and project.plan_edit: Execute wraps it in
// a transaction, plan_edit runs it against a throwaway clone.
//
// The returned summary carries the action's payload fields; changed reports
// whether the model was actually mutated (false means the action was an
// idempotent no-op).
func applyEdit(name string, params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	switch name {
	case "clip.add":
		return applyClipAdd(params, p)
	case "clip.move":
		return applyClipMove(params, p)
	case "clip.trim":
		return applyClipTrim(params, p)
	case "clip.split":
		return applyClipSplit(params, p)
	case "clip.remove":
		return applyClipRemove(params, p)
	case "clip.ripple-delete":
		return applyRippleDelete(params, p)
	case "clip.nudge":
		return applyClipNudge(params, p)
	case "clip.slip":
		return applyClipSlip(params, p)
	case "clip.slide":
		return applyClipSlide(params, p)
	case "clip.time-remap":
		return applyTimeRemap(params, p)
	case "track.insert-gap":
		return applyInsertGap(params, p)
	case "track.remove-all-gaps":
		return applyRemoveAllGaps(params, p)
	case "track.stitch":
		return applyStitch(params, p)
	case "group.create":
		return applyGroupCreate(params, p)
	case "group.dissolve":
		return applyGroupDissolve(params, p)
	case "effect.apply":
		return applyEffectApply(params, p)
	case "effect.update":
		return applyEffectUpdate(params, p)
	case "effect.remove":
		return applyEffectRemove(params, p)
	case "transition.apply":
		return applyTransitionApply(params, p)
	case "transition.remove":
		return applyTransitionRemove(params, p)
	case "asset.add":
		return applyAssetAdd(params, p)
	default:
		return nil, false, edit.Errorf(edit.CodeInvalidInput, "unknown action %q", name)
	}
}

var editActions = map[string]bool{
	"clip.add":              true,
	"clip.move":             true,
	"clip.trim":             true,
	"clip.split":            true,
	"clip.remove":           true,
	"clip.ripple-delete":    true,
	"clip.nudge":            true,
	"clip.slip":             true,
	"clip.slide":            true,
	"clip.time-remap":       true,
	"track.insert-gap":      true,
	"track.remove-all-gaps": true,
	"track.stitch":          true,
	"group.create":          true,
	"group.dissolve":        true,
	"effect.apply":          true,
	"effect.update":         true,
	"effect.remove":         true,
	"transition.apply":      true,
	"transition.remove":     true,
	"asset.add":             true,
}

func resolveKind(p *timeline.Project, selector string, want resolve.Kind) (string, *edit.Error) {
	h, err := resolve.Resolve(p, selector)
	if err != nil {
		return "", err
	}

	if h.Kind != want {
		return "", edit.Errorf(edit.CodeInvalidInput, "selector %q resolved to %s, expected a %s", selector, h, want)
	}

	return h.ID, nil
}

func clipParam(params Params, p *timeline.Project) (string, *edit.Error) {
	selector, err := params.RequiredStr("clip")
	if err != nil {
		return "", err
	}

	return resolveKind(p, selector, resolve.KindClip)
}

func trackParam(params Params, p *timeline.Project) (string, *edit.Error) {
	selector, err := params.RequiredStr("track")
	if err != nil {
		return "", err
	}

	return resolveKind(p, selector, resolve.KindTrack)
}

func applyClipAdd(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	trackID, err := trackParam(params, p)
	if err != nil {
		return nil, false, err
	}

	producerSel, err := params.RequiredStr("producer")
	if err != nil {
		return nil, false, err
	}

	producerID, err := resolveKind(p, producerSel, resolve.KindProducer)
	if err != nil {
		return nil, false, err
	}

	position, err := params.RequiredInt64("position")
	if err != nil {
		return nil, false, err
	}

	in, err := params.Int64("in", 0)
	if err != nil {
		return nil, false, err
	}

	out, err := params.OptInt64("out")
	if err != nil {
		return nil, false, err
	}

	clip, err := edit.AddClip{
		TrackID:    trackID,
		ProducerID: producerID,
		Position:   position,
		InPoint:    in,
		OutPoint:   out,
	}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{
		"clip_id":  clip.ID,
		"track_id": trackID,
		"position": clip.Position,
		"duration": clip.Duration(),
	}, true, nil
}

func applyClipMove(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	position, err := params.RequiredInt64("position")
	if err != nil {
		return nil, false, err
	}

	targetTrack := ""

	if sel, err := params.Str("track"); err != nil {
		return nil, false, err
	} else if sel != "" {
		targetTrack, err = resolveKind(p, sel, resolve.KindTrack)
		if err != nil {
			return nil, false, err
		}
	}

	changed, err := edit.MoveClip{ClipID: clipID, TrackID: targetTrack, Position: position}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "position": position}, changed, nil
}

func applyClipTrim(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	in, err := params.OptInt64("in")
	if err != nil {
		return nil, false, err
	}

	out, err := params.OptInt64("out")
	if err != nil {
		return nil, false, err
	}

	changed, err := edit.TrimClip{ClipID: clipID, InPoint: in, OutPoint: out}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	clip, _, _ := p.FindClip(clipID)

	return map[string]any{
		"clip_id":  clipID,
		"in":       clip.InPoint,
		"out":      clip.OutPoint,
		"duration": clip.Duration(),
	}, changed, nil
}

func applyClipSplit(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	frame, err := params.RequiredInt64("frame")
	if err != nil {
		return nil, false, err
	}

	second, err := edit.SplitClip{ClipID: clipID, Frame: frame}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{
		"clip_id":     clipID,
		"new_clip_id": second.ID,
		"frame":       frame,
	}, true, nil
}

func applyClipRemove(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	closeGap, err := params.Bool("close_gap")
	if err != nil {
		return nil, false, err
	}

	err = edit.RemoveClip{ClipID: clipID, CloseGap: closeGap}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "close_gap": closeGap}, true, nil
}

func applyRippleDelete(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	err = edit.RippleDelete{ClipID: clipID}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID}, true, nil
}

func applyClipNudge(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	delta, err := params.RequiredInt64("delta")
	if err != nil {
		return nil, false, err
	}

	changed, err := edit.Nudge{ClipID: clipID, Delta: delta}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "delta": delta}, changed, nil
}

func applyClipSlip(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	delta, err := params.RequiredInt64("delta")
	if err != nil {
		return nil, false, err
	}

	applied, err := edit.Slip{ClipID: clipID, Delta: delta}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "requested": delta, "applied": applied}, applied != 0, nil
}

func applyClipSlide(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	delta, err := params.RequiredInt64("delta")
	if err != nil {
		return nil, false, err
	}

	changed, err := edit.Slide{ClipID: clipID, Delta: delta}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "delta": delta}, changed, nil
}

func applyTimeRemap(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	speed, err := params.Float64("speed", 0)
	if err != nil {
		return nil, false, err
	}

	oldDur, newDur, changed, err := edit.TimeRemap{ClipID: clipID, Speed: speed}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{
		"clip_id":      clipID,
		"speed":        speed,
		"old_duration": oldDur,
		"new_duration": newDur,
	}, changed, nil
}

func applyInsertGap(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	trackID, err := trackParam(params, p)
	if err != nil {
		return nil, false, err
	}

	position, err := params.RequiredInt64("position")
	if err != nil {
		return nil, false, err
	}

	length, err := params.RequiredInt64("length")
	if err != nil {
		return nil, false, err
	}

	err = edit.InsertGap{TrackID: trackID, Position: position, Length: length}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"track_id": trackID, "position": position, "length": length}, true, nil
}

func applyRemoveAllGaps(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	trackID, err := trackParam(params, p)
	if err != nil {
		return nil, false, err
	}

	removed, err := edit.RemoveAllGaps{TrackID: trackID}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"track_id": trackID, "removed_frames": removed}, removed > 0, nil
}

func applyStitch(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	trackID, err := trackParam(params, p)
	if err != nil {
		return nil, false, err
	}

	producerSels, err := params.StrSlice("producers")
	if err != nil {
		return nil, false, err
	}

	if len(producerSels) == 0 {
		return nil, false, edit.Errorf(edit.CodeInvalidInput, "parameter %q is required", "producers")
	}

	producerIDs := make([]string, 0, len(producerSels))

	for _, sel := range producerSels {
		id, err := resolveKind(p, sel, resolve.KindProducer)
		if err != nil {
			return nil, false, err
		}

		producerIDs = append(producerIDs, id)
	}

	position, err := params.OptInt64("position")
	if err != nil {
		return nil, false, err
	}

	gap, err := params.Int64("gap", 0)
	if err != nil {
		return nil, false, err
	}

	duration, err := params.OptInt64("duration")
	if err != nil {
		return nil, false, err
	}

	clips, err := edit.StitchClips{
		TrackID:        trackID,
		ProducerIDs:    producerIDs,
		Position:       position,
		Gap:            gap,
		DurationFrames: duration,
	}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	ids := make([]string, 0, len(clips))
	for _, c := range clips {
		ids = append(ids, c.ID)
	}

	return map[string]any{"track_id": trackID, "clip_ids": ids}, true, nil
}

func applyGroupCreate(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipSels, err := params.StrSlice("clips")
	if err != nil {
		return nil, false, err
	}

	clipIDs := make([]string, 0, len(clipSels))

	for _, sel := range clipSels {
		id, err := resolveKind(p, sel, resolve.KindClip)
		if err != nil {
			return nil, false, err
		}

		clipIDs = append(clipIDs, id)
	}

	groupID, err := params.Str("group")
	if err != nil {
		return nil, false, err
	}

	id, err := edit.GroupClips{GroupID: groupID, ClipIDs: clipIDs}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"group_id": id, "clip_ids": clipIDs}, true, nil
}

func applyGroupDissolve(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	groupID, err := params.RequiredStr("group")
	if err != nil {
		return nil, false, err
	}

	err = edit.UngroupClips{GroupID: groupID}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"group_id": groupID}, true, nil
}

func applyEffectApply(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	service, err := params.RequiredStr("service")
	if err != nil {
		return nil, false, err
	}

	effectID, err := params.Str("effect")
	if err != nil {
		return nil, false, err
	}

	props, err := params.StrMap("properties")
	if err != nil {
		return nil, false, err
	}

	keyframes, err := params.Keyframes("keyframes")
	if err != nil {
		return nil, false, err
	}

	id, err := edit.ApplyEffect{
		ClipID:     clipID,
		EffectID:   effectID,
		Service:    service,
		Properties: props,
		Keyframes:  keyframes,
	}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "effect_id": id, "service": service}, true, nil
}

func applyEffectUpdate(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	effectID, err := params.RequiredStr("effect")
	if err != nil {
		return nil, false, err
	}

	props, err := params.StrMap("properties")
	if err != nil {
		return nil, false, err
	}

	keyframes, err := params.Keyframes("keyframes")
	if err != nil {
		return nil, false, err
	}

	err = edit.UpdateEffect{
		ClipID:     clipID,
		EffectID:   effectID,
		Properties: props,
		Keyframes:  keyframes,
	}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "effect_id": effectID}, true, nil
}

func applyEffectRemove(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	clipID, err := clipParam(params, p)
	if err != nil {
		return nil, false, err
	}

	effectID, err := params.RequiredStr("effect")
	if err != nil {
		return nil, false, err
	}

	changed, err := edit.RemoveEffect{ClipID: clipID, EffectID: effectID}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"clip_id": clipID, "effect_id": effectID}, changed, nil
}

func applyTransitionApply(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	fromSel, err := params.RequiredStr("from")
	if err != nil {
		return nil, false, err
	}

	fromID, err := resolveKind(p, fromSel, resolve.KindClip)
	if err != nil {
		return nil, false, err
	}

	toSel, err := params.RequiredStr("to")
	if err != nil {
		return nil, false, err
	}

	toID, err := resolveKind(p, toSel, resolve.KindClip)
	if err != nil {
		return nil, false, err
	}

	service, err := params.Str("service")
	if err != nil {
		return nil, false, err
	}

	in, err := params.RequiredInt64("in")
	if err != nil {
		return nil, false, err
	}

	out, err := params.RequiredInt64("out")
	if err != nil {
		return nil, false, err
	}

	props, err := params.StrMap("properties")
	if err != nil {
		return nil, false, err
	}

	transitionID, err := params.Str("transition")
	if err != nil {
		return nil, false, err
	}

	id, err := edit.ApplyTransition{
		TransitionID: transitionID,
		Service:      service,
		FromClipID:   fromID,
		ToClipID:     toID,
		In:           in,
		Out:          out,
		Properties:   props,
	}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"transition_id": id, "from": fromID, "to": toID}, true, nil
}

func applyTransitionRemove(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	transitionID, err := params.RequiredStr("transition")
	if err != nil {
		return nil, false, err
	}

	changed, err := edit.RemoveTransition{TransitionID: transitionID}.Apply(p)
	if err != nil {
		return nil, false, err
	}

	return map[string]any{"transition_id": transitionID}, changed, nil
}

func applyAssetAdd(params Params, p *timeline.Project) (map[string]any, bool, *edit.Error) {
	id, err := params.RequiredStr("id")
	if err != nil {
		return nil, false, err
	}

	resource, err := params.RequiredStr("resource")
	if err != nil {
		return nil, false, err
	}

	name, err := params.Str("name")
	if err != nil {
		return nil, false, err
	}

	if name == "" {
		name = id
	}

	duration, err := params.OptInt64("duration")
	if err != nil {
		return nil, false, err
	}

	producer := &timeline.Producer{ID: id, Name: name, Resource: resource}

	if duration != nil {
		producer.Meta = &timeline.Meta{DurationFrames: *duration}
	}

	mErr := p.AddProducer(producer)
	if mErr != nil {
		return nil, false, edit.FromModel(mErr)
	}

	return map[string]any{"producer_id": id, "resource": resource}, true, nil
}
