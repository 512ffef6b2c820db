package svc

import "reflect"

// ChannelID is the numeric static virtual channel identifier negotiated
// during MCS channel join.
type ChannelID uint16

// Set owns every static virtual channel for one connection and maintains
// the bidirectional channel-id <-> processor-type mapping. Ownership: the
// set owns the channels; callers borrow by type or by channel id. Detaching
// a channel removes both the id->type and type->id entries.
type Set struct {
	channels   map[reflect.Type]*Channel
	toChannel  map[reflect.Type]ChannelID
	toType     map[ChannelID]reflect.Type
}

func NewSet() *Set {
	return &Set{
		channels:  make(map[reflect.Type]*Channel),
		toChannel: make(map[reflect.Type]ChannelID),
		toType:    make(map[ChannelID]reflect.Type),
	}
}

func typeOf(p Processor) reflect.Type { return reflect.TypeOf(p) }

// Insert registers a processor's channel, replacing any previous channel of
// the identical concrete type.
func (s *Set) Insert(p Processor) *Channel {
	ch := NewChannel(p)
	s.channels[typeOf(p)] = ch
	return ch
}

func (s *Set) ByType(p Processor) (*Channel, bool) {
	ch, ok := s.channels[typeOf(p)]
	return ch, ok
}

func (s *Set) ByChannelID(id ChannelID) (*Channel, bool) {
	t, ok := s.toType[id]
	if !ok {
		return nil, false
	}
	ch, ok := s.channels[t]
	return ch, ok
}

// AttachChannelID associates a negotiated numeric channel id with the
// processor's type, overwriting any previous association.
func (s *Set) AttachChannelID(p Processor, id ChannelID) {
	t := typeOf(p)
	if prev, ok := s.toChannel[t]; ok {
		delete(s.toType, prev)
	}
	s.toChannel[t] = id
	s.toType[id] = t
}

func (s *Set) ChannelIDFor(p Processor) (ChannelID, bool) {
	id, ok := s.toChannel[typeOf(p)]
	return id, ok
}

// Detach removes the channel-id association for p, leaving the channel
// itself registered.
func (s *Set) Detach(p Processor) {
	t := typeOf(p)
	if id, ok := s.toChannel[t]; ok {
		delete(s.toType, id)
		delete(s.toChannel, t)
	}
}

func (s *Set) Remove(p Processor) {
	t := typeOf(p)
	delete(s.channels, t)
	if id, ok := s.toChannel[t]; ok {
		delete(s.toType, id)
		delete(s.toChannel, t)
	}
}

func (s *Set) All() []*Channel {
	out := make([]*Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	return out
}
