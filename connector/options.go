package connector

import (
	"github.com/go-playground/validator/v10"

	"github.com/rcarmo/go-rdp/protocol/caps"
	"github.com/rcarmo/go-rdp/protocol/gcc"
	"github.com/rcarmo/go-rdp/protocol/x224"
)

// Options configures a client connection sequence: everything the
// connector needs before it can produce the first byte on the wire.
type Options struct {
	Username   string `validate:"required,max=256"`
	Domain     string `validate:"max=256"`
	Password   string `validate:"max=256"`
	ClientName string `validate:"required,max=15"`

	DesktopWidth  uint16 `validate:"gte=200,lte=8192"`
	DesktopHeight uint16 `validate:"gte=200,lte=8192"`
	ColorDepth    uint16 `validate:"oneof=8 15 16 24 32"`

	// RequestedProtocols is the SecurityProtocol bitset offered in the
	// X.224 Connection Request.
	RequestedProtocols x224.SecurityProtocol

	// Channels are the static virtual channels the client asks the
	// server to establish, in request order.
	Channels []gcc.ChannelDef

	// Capabilities are the client's own capability sets, sent verbatim
	// in the Confirm Active PDU.
	Capabilities caps.List
}

var optionsValidator = validator.New()

// Validate checks the field-range invariants (desktop size bounds, color
// depth enum, client name length) that a malformed caller would otherwise
// only discover as an obscure encode failure deep in the handshake.
func (o *Options) Validate() error {
	return optionsValidator.Struct(o)
}
