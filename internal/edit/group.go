package edit

import (
	"github.com/avharness/cutline/internal/timeline"

	"github.com/google/uuid"
)

// GroupClips binds a set of clips into a group that moves together.
type GroupClips struct {
	// GroupID names the group; empty generates one.
	GroupID string
	ClipIDs []string
}

// Apply creates the group and returns its id. Every clip must exist and be
// ungrouped; nothing is assigned on failure.
func (op GroupClips) Apply(p *timeline.Project) (string, *Error) {
	if len(op.ClipIDs) < 2 {
		return "", Errorf(CodeInvalidInput, "a group needs at least two clips")
	}

	groupID := op.GroupID
	if groupID == "" {
		groupID = newGroupID()
	}

	if err := p.AssignGroup(groupID, op.ClipIDs); err != nil {
		return "", FromModel(err)
	}

	return groupID, nil
}

// UngroupClips dissolves a group, leaving its members in place.
type UngroupClips struct {
	GroupID string
}

// Apply clears the shared group id from every member.
func (op UngroupClips) Apply(p *timeline.Project) *Error {
	if err := p.DissolveGroup(op.GroupID); err != nil {
		return FromModel(err)
	}

	return nil
}

func newGroupID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "group-" + uuid.NewString()
	}

	return "group-" + id.String()
}
