package timeline

import (
	"fmt"
	"slices"
	"sort"
)

// ClipAt returns the clip whose interval covers the given frame, or nil.
func (t *Track) ClipAt(frame int64) *Clip {
	for _, c := range t.Clips {
		if c.Position <= frame && frame < c.End() {
			return c
		}
	}

	return nil
}

// Clip returns the clip with the given instance id, or nil.
func (t *Track) Clip(id string) *Clip {
	for _, c := range t.Clips {
		if c.ID == id {
			return c
		}
	}

	return nil
}

// CanPlace reports whether [pos, pos+dur) is free of clips, ignoring the
// listed clip ids. Used to validate placements that move existing clips.
func (t *Track) CanPlace(pos, dur int64, ignore ...string) bool {
	for _, c := range t.Clips {
		if slices.Contains(ignore, c.ID) {
			continue
		}

		if c.Overlaps(pos, dur) {
			return false
		}
	}

	return true
}

// Place inserts the clip keeping position order. It fails with [ErrOverlap]
// if the clip's interval intersects an existing clip, [ErrDuplicate] if the
// instance id is already present, and [ErrInvalid] on negative position or
// non-positive duration. The track is unchanged on error.
func (t *Track) Place(c *Clip) error {
	if c.Position < 0 {
		return fmt.Errorf("place clip %q: position %d: %w", c.ID, c.Position, ErrInvalid)
	}

	if c.Duration() <= 0 {
		return fmt.Errorf("place clip %q: duration %d: %w", c.ID, c.Duration(), ErrInvalid)
	}

	if t.Clip(c.ID) != nil {
		return fmt.Errorf("place clip %q: %w", c.ID, ErrDuplicate)
	}

	if !t.CanPlace(c.Position, c.Duration()) {
		return fmt.Errorf("place clip %q at %d: %w", c.ID, c.Position, ErrOverlap)
	}

	idx := sort.Search(len(t.Clips), func(i int) bool {
		return t.Clips[i].Position > c.Position
	})

	t.Clips = slices.Insert(t.Clips, idx, c)

	return nil
}

// Remove deletes the clip with the given id and returns it.
func (t *Track) Remove(id string) (*Clip, error) {
	for i, c := range t.Clips {
		if c.ID == id {
			t.Clips = slices.Delete(t.Clips, i, i+1)
			return c, nil
		}
	}

	return nil, fmt.Errorf("remove clip %q: %w", id, ErrNotFound)
}

// Resort restores position order after in-place position edits.
func (t *Track) Resort() {
	sort.SliceStable(t.Clips, func(i, j int) bool {
		return t.Clips[i].Position < t.Clips[j].Position
	})
}

// ShiftFrom moves every clip at or after position by delta frames. Callers
// must ensure the shift cannot create overlaps (a uniform shift preserves
// relative order and spacing).
func (t *Track) ShiftFrom(position, delta int64) int {
	shifted := 0

	for _, c := range t.Clips {
		if c.Position >= position {
			c.Position += delta
			shifted++
		}
	}

	t.Resort()

	return shifted
}

// InsertGap shifts every clip at or after position right by length frames.
func (t *Track) InsertGap(position, length int64) error {
	if position < 0 || length <= 0 {
		return fmt.Errorf("insert gap at %d length %d: %w", position, length, ErrInvalid)
	}

	t.ShiftFrom(position, length)

	return nil
}

// RemoveAllGaps left-shifts clips in position order so the track has no
// uncovered frames before its last clip. Relative order and durations are
// preserved. Returns the total number of gap frames removed.
func (t *Track) RemoveAllGaps() int64 {
	var removed, cursor int64

	for _, c := range t.Clips {
		if c.Position > cursor {
			removed += c.Position - cursor
			c.Position = cursor
		}

		cursor = c.End()
	}

	return removed
}

// AddProducer registers a producer. Ids are unique project-wide.
func (p *Project) AddProducer(prod *Producer) error {
	if prod.ID == "" {
		return fmt.Errorf("add producer: empty id: %w", ErrInvalid)
	}

	if _, ok := p.Producers[prod.ID]; ok {
		return fmt.Errorf("add producer %q: %w", prod.ID, ErrDuplicate)
	}

	if p.Producers == nil {
		p.Producers = map[string]*Producer{}
	}

	p.Producers[prod.ID] = prod

	if p.Bin == nil {
		p.Bin = &BinFolder{Name: "bin"}
	}

	p.Bin.ProducerIDs = append(p.Bin.ProducerIDs, prod.ID)
	sort.Strings(p.Bin.ProducerIDs)

	return nil
}

// Group returns the sorted member clip ids of a group (nil if absent).
func (p *Project) Group(id string) []string {
	return p.Groups[id]
}

// GroupOf returns the group id a clip belongs to, or "".
func (p *Project) GroupOf(clipID string) string {
	c, _, ok := p.FindClip(clipID)
	if !ok {
		return ""
	}

	return c.GroupID
}

// AssignGroup sets the group id on each clip and records the membership in
// the set-valued index. Fails if any clip is missing or already grouped
// elsewhere; nothing is assigned on error.
func (p *Project) AssignGroup(groupID string, clipIDs []string) error {
	if groupID == "" || len(clipIDs) == 0 {
		return fmt.Errorf("assign group: %w", ErrInvalid)
	}

	if _, ok := p.Groups[groupID]; ok {
		return fmt.Errorf("assign group %q: %w", groupID, ErrDuplicate)
	}

	clips := make([]*Clip, 0, len(clipIDs))

	for _, id := range clipIDs {
		c, _, ok := p.FindClip(id)
		if !ok {
			return fmt.Errorf("assign group %q: clip %q: %w", groupID, id, ErrNotFound)
		}

		if c.GroupID != "" {
			return fmt.Errorf("assign group %q: clip %q already in group %q: %w", groupID, id, c.GroupID, ErrInvalid)
		}

		clips = append(clips, c)
	}

	members := slices.Clone(clipIDs)
	sort.Strings(members)

	for _, c := range clips {
		c.GroupID = groupID
	}

	if p.Groups == nil {
		p.Groups = map[string][]string{}
	}

	p.Groups[groupID] = members

	return nil
}

// DissolveGroup clears the group id from all members and drops the index
// entry. Dissolving an unknown group fails with [ErrNotFound].
func (p *Project) DissolveGroup(groupID string) error {
	members, ok := p.Groups[groupID]
	if !ok {
		return fmt.Errorf("dissolve group %q: %w", groupID, ErrNotFound)
	}

	for _, id := range members {
		if c, _, found := p.FindClip(id); found {
			c.GroupID = ""
		}
	}

	delete(p.Groups, groupID)

	return nil
}

// DropGroupMember removes one clip id from the group index, dissolving the
// group when fewer than two members remain. Called when a member is deleted.
func (p *Project) DropGroupMember(groupID, clipID string) {
	members, ok := p.Groups[groupID]
	if !ok {
		return
	}

	members = slices.DeleteFunc(slices.Clone(members), func(id string) bool {
		return id == clipID
	})

	if len(members) < 2 {
		for _, id := range members {
			if c, _, found := p.FindClip(id); found {
				c.GroupID = ""
			}
		}

		delete(p.Groups, groupID)

		return
	}

	p.Groups[groupID] = members
}
