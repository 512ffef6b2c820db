// Package svc implements the static virtual channel fragmentation engine:
// the Channel PDU Header (MS-RDPBCGR 2.2.6.1.1), the chunkify/dechunkify
// splitter and reassembler, and a channel-set registry keyed by each
// channel processor's concrete type.
//
// Grounded on Devolutions/IronRDP's ironrdp-svc crate (see
// original_source/crates/ironrdp-svc/src/lib.rs): the header layout,
// default chunk size, and channel-set API shape are reproduced from there.
package svc

import (
	"fmt"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// ChannelFlags is the Channel PDU Header's control bitfield.
type ChannelFlags uint32

const (
	FlagFirst            ChannelFlags = 0x00000001
	FlagLast             ChannelFlags = 0x00000002
	FlagShowProtocol     ChannelFlags = 0x00000010
	FlagSuspend          ChannelFlags = 0x00000020
	FlagResume           ChannelFlags = 0x00000040
	FlagShadowPersistent ChannelFlags = 0x00000080
	FlagCompressed       ChannelFlags = 0x00200000
	FlagAtFront          ChannelFlags = 0x00400000
	FlagFlushed          ChannelFlags = 0x00800000
)

func (f ChannelFlags) Has(bit ChannelFlags) bool { return f&bit != 0 }

// ChannelPduHeader precedes every fragment ("chunk") of static virtual
// channel traffic. Length always carries the total size of the logical
// message being fragmented, not the size of this particular chunk.
type ChannelPduHeader struct {
	Length uint32
	Flags  ChannelFlags
}

const channelPduHeaderName = "CHANNEL_PDU_HEADER"
const channelPduHeaderFixedSize = 8

func (h ChannelPduHeader) Name() string { return channelPduHeaderName }
func (h ChannelPduHeader) Size() int    { return channelPduHeaderFixedSize }

func (h ChannelPduHeader) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(channelPduHeaderName, dst, h.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(h.Length)
	dst.WriteU32LE(uint32(h.Flags))
	return nil
}

func DecodeChannelPduHeader(src *cursor.Reader) (ChannelPduHeader, error) {
	if err := pdu.EnsureFixedPartSize(channelPduHeaderName, src, channelPduHeaderFixedSize); err != nil {
		return ChannelPduHeader{}, err
	}
	return ChannelPduHeader{
		Length: src.ReadU32LE(),
		Flags:  ChannelFlags(src.ReadU32LE()),
	}, nil
}

func (h ChannelPduHeader) String() string {
	return fmt.Sprintf("CHANNEL_PDU_HEADER{length=%d flags=%#x}", h.Length, uint32(h.Flags))
}
