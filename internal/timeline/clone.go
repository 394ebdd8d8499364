package timeline

import (
	"maps"
	"slices"
)

// Clone returns a deep copy sharing no mutable state with the receiver.
// Transactions edit clones and publish them wholesale on commit.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}

	out := &Project{
		FPS:              p.FPS,
		Width:            p.Width,
		Height:           p.Height,
		ActiveSequenceID: p.ActiveSequenceID,
		Bin:              p.Bin.clone(),
	}

	out.Sequences = make([]*Sequence, len(p.Sequences))
	for i, seq := range p.Sequences {
		out.Sequences[i] = seq.clone()
	}

	if p.Producers != nil {
		out.Producers = make(map[string]*Producer, len(p.Producers))
		for id, prod := range p.Producers {
			out.Producers[id] = prod.clone()
		}
	}

	if p.Groups != nil {
		out.Groups = make(map[string][]string, len(p.Groups))
		for id, members := range p.Groups {
			out.Groups[id] = slices.Clone(members)
		}
	}

	return out
}

func (s *Sequence) clone() *Sequence {
	if s == nil {
		return nil
	}

	out := &Sequence{
		ID:      s.ID,
		Name:    s.Name,
		ZoneIn:  s.ZoneIn,
		ZoneOut: s.ZoneOut,
	}

	out.Tracks = make([]*Track, len(s.Tracks))
	for i, tr := range s.Tracks {
		out.Tracks[i] = tr.clone()
	}

	if s.Transitions != nil {
		out.Transitions = make([]*Transition, len(s.Transitions))
		for i, tn := range s.Transitions {
			out.Transitions[i] = tn.clone()
		}
	}

	return out
}

func (t *Track) clone() *Track {
	if t == nil {
		return nil
	}

	out := &Track{
		ID:     t.ID,
		Name:   t.Name,
		Type:   t.Type,
		Muted:  t.Muted,
		Locked: t.Locked,
		Hidden: t.Hidden,
	}

	out.Clips = make([]*Clip, len(t.Clips))
	for i, c := range t.Clips {
		out.Clips[i] = c.clone()
	}

	return out
}

func (c *Clip) clone() *Clip {
	if c == nil {
		return nil
	}

	out := &Clip{
		ID:         c.ID,
		ProducerID: c.ProducerID,
		Position:   c.Position,
		InPoint:    c.InPoint,
		OutPoint:   c.OutPoint,
		GroupID:    c.GroupID,
	}

	if c.Effects != nil {
		out.Effects = make([]*Effect, len(c.Effects))
		for i, e := range c.Effects {
			out.Effects[i] = e.clone()
		}
	}

	return out
}

func (e *Effect) clone() *Effect {
	if e == nil {
		return nil
	}

	out := &Effect{
		ID:         e.ID,
		Service:    e.Service,
		Properties: maps.Clone(e.Properties),
	}

	if e.Keyframes != nil {
		out.Keyframes = make(map[string][]Keyframe, len(e.Keyframes))
		for param, frames := range e.Keyframes {
			out.Keyframes[param] = slices.Clone(frames)
		}
	}

	return out
}

func (tn *Transition) clone() *Transition {
	if tn == nil {
		return nil
	}

	out := *tn
	out.Properties = maps.Clone(tn.Properties)

	return &out
}

func (p *Producer) clone() *Producer {
	if p == nil {
		return nil
	}

	out := *p

	if p.Meta != nil {
		meta := *p.Meta
		out.Meta = &meta
	}

	return &out
}

func (b *BinFolder) clone() *BinFolder {
	if b == nil {
		return nil
	}

	out := &BinFolder{
		Name:        b.Name,
		ProducerIDs: slices.Clone(b.ProducerIDs),
	}

	if b.Folders != nil {
		out.Folders = make([]*BinFolder, len(b.Folders))
		for i, f := range b.Folders {
			out.Folders[i] = f.clone()
		}
	}

	return out
}
