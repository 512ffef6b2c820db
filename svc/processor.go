package svc

import "github.com/rcarmo/go-rdp/core/pdu"

// CompressionCondition controls whether a channel's traffic is tagged
// CHANNEL_OPTION_COMPRESS{,_RDP} in its CHANNEL_DEF during GCC negotiation.
type CompressionCondition int

const (
	CompressionNever CompressionCondition = iota
	CompressionWhenRdpDataIsCompressed
	CompressionAlways
)

// Message is an encodable PDU queued for delivery over a static virtual
// channel, with any additional per-message Channel PDU Header flags (e.g.
// FlagShowProtocol) the caller wants applied to every chunk it produces.
type Message struct {
	PDU   pdu.Codec
	Flags ChannelFlags
}

// Processor is implemented by each static virtual channel's business logic
// (cliprdr, rdpsnd, drdynvc, rail, ...). Process receives a fully
// dechunkified payload and returns zero or more messages to send back.
type Processor interface {
	ChannelName() string
	CompressionCondition() CompressionCondition
	Process(payload []byte) ([]Message, error)
}

// Channel pairs a Processor with the chunk reassembler that feeds it.
type Channel struct {
	Processor Processor
	reasm     reassembler
}

func NewChannel(p Processor) *Channel {
	return &Channel{Processor: p}
}

// Process dechunkifies payload and, once a full PDU has been reassembled,
// hands it to the processor.
func (c *Channel) Process(payload []byte) ([]Message, error) {
	full, err := c.reasm.dechunkify(payload)
	if err != nil {
		return nil, err
	}
	if full == nil {
		return nil, nil
	}
	return c.Processor.Process(full)
}
