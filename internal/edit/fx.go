package edit

import (
	"maps"

	"github.com/avharness/cutline/internal/timeline"

	"github.com/google/uuid"
)

// ApplyEffect attaches an effect with a property map and optional keyframe
// curves to a clip.
type ApplyEffect struct {
	ClipID string
	// EffectID names the attachment; empty generates one.
	EffectID   string
	Service    string
	Properties map[string]string
	Keyframes  map[string][]timeline.Keyframe
}

// Apply attaches the effect and returns its id.
func (op ApplyEffect) Apply(p *timeline.Project) (string, *Error) {
	if op.Service == "" {
		return "", Errorf(CodeInvalidInput, "effect service is required")
	}

	c, _, err := findClip(p, op.ClipID)
	if err != nil {
		return "", err
	}

	effectID := op.EffectID
	if effectID == "" {
		effectID = newEffectID()
	}

	if findEffect(c, effectID) != nil {
		return "", Errorf(CodeInvalidInput, "clip %q already has effect %q", c.ID, effectID)
	}

	effect := &timeline.Effect{
		ID:         effectID,
		Service:    op.Service,
		Properties: maps.Clone(op.Properties),
	}

	if op.Keyframes != nil {
		effect.Keyframes = make(map[string][]timeline.Keyframe, len(op.Keyframes))
		for param, frames := range op.Keyframes {
			effect.Keyframes[param] = append([]timeline.Keyframe(nil), frames...)
		}
	}

	c.Effects = append(c.Effects, effect)

	return effectID, nil
}

// UpdateEffect merges properties into an existing effect and replaces the
// keyframe curves of any parameter it names.
type UpdateEffect struct {
	ClipID     string
	EffectID   string
	Properties map[string]string
	Keyframes  map[string][]timeline.Keyframe
}

// Apply updates the effect in place.
func (op UpdateEffect) Apply(p *timeline.Project) *Error {
	c, _, err := findClip(p, op.ClipID)
	if err != nil {
		return err
	}

	effect := findEffect(c, op.EffectID)
	if effect == nil {
		return Errorf(CodeNotFound, "effect %q not found on clip %q", op.EffectID, c.ID)
	}

	if len(op.Properties) > 0 && effect.Properties == nil {
		effect.Properties = map[string]string{}
	}

	maps.Copy(effect.Properties, op.Properties)

	if len(op.Keyframes) > 0 && effect.Keyframes == nil {
		effect.Keyframes = map[string][]timeline.Keyframe{}
	}

	for param, frames := range op.Keyframes {
		effect.Keyframes[param] = append([]timeline.Keyframe(nil), frames...)
	}

	return nil
}

// RemoveEffect detaches an effect from a clip.
type RemoveEffect struct {
	ClipID   string
	EffectID string
}

// Apply removes the effect; removing an absent effect is an idempotent
// no-op reported through the boolean result.
func (op RemoveEffect) Apply(p *timeline.Project) (bool, *Error) {
	c, _, err := findClip(p, op.ClipID)
	if err != nil {
		return false, err
	}

	for i, e := range c.Effects {
		if e.ID == op.EffectID {
			c.Effects = append(c.Effects[:i], c.Effects[i+1:]...)

			if len(c.Effects) == 0 {
				c.Effects = nil
			}

			return true, nil
		}
	}

	return false, nil
}

// ApplyTransition joins a clip pair with a transition over a frame range.
type ApplyTransition struct {
	// TransitionID names the transition; empty generates one.
	TransitionID string
	Service      string // empty defaults to "mix"
	FromClipID   string
	ToClipID     string
	In, Out      int64
	Properties   map[string]string
}

// Apply records the transition on the sequence containing both clips.
func (op ApplyTransition) Apply(p *timeline.Project) (string, *Error) {
	if op.In < 0 || op.Out < op.In {
		return "", Errorf(CodeInvalidInput, "invalid transition range [%d, %d]", op.In, op.Out)
	}

	from, fromTrack, err := findClip(p, op.FromClipID)
	if err != nil {
		return "", err
	}

	_, toTrack, err := findClip(p, op.ToClipID)
	if err != nil {
		return "", err
	}

	seq := p.SequenceOf(fromTrack)
	if seq == nil || seq != p.SequenceOf(toTrack) {
		return "", Errorf(CodeInvalidInput, "clips %q and %q are not in the same sequence", op.FromClipID, op.ToClipID)
	}

	service := op.Service
	if service == "" {
		service = "mix"
	}

	transitionID := op.TransitionID
	if transitionID == "" {
		transitionID = newTransitionID()
	}

	for _, tn := range seq.Transitions {
		if tn.ID == transitionID {
			return "", Errorf(CodeInvalidInput, "transition %q already exists", transitionID)
		}
	}

	seq.Transitions = append(seq.Transitions, &timeline.Transition{
		ID:         transitionID,
		Service:    service,
		FromClipID: from.ID,
		ToClipID:   op.ToClipID,
		In:         op.In,
		Out:        op.Out,
		Properties: maps.Clone(op.Properties),
	})

	return transitionID, nil
}

// RemoveTransition deletes a transition by id.
type RemoveTransition struct {
	TransitionID string
}

// Apply removes the transition; an absent id is an idempotent no-op.
func (op RemoveTransition) Apply(p *timeline.Project) (bool, *Error) {
	for _, seq := range p.Sequences {
		for i, tn := range seq.Transitions {
			if tn.ID == op.TransitionID {
				seq.Transitions = append(seq.Transitions[:i], seq.Transitions[i+1:]...)

				if len(seq.Transitions) == 0 {
					seq.Transitions = nil
				}

				return true, nil
			}
		}
	}

	return false, nil
}

func findEffect(c *timeline.Clip, id string) *timeline.Effect {
	for _, e := range c.Effects {
		if e.ID == id {
			return e
		}
	}

	return nil
}

func newEffectID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "effect-" + uuid.NewString()
	}

	return "effect-" + id.String()
}

func newTransitionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "transition-" + uuid.NewString()
	}

	return "transition-" + id.String()
}
