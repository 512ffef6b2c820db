// Package acceptor implements the server-side mirror of connector: the
// state machine that walks a fresh inbound transport from an X.224
// Connection Request through MCS, security, licensing, and capability
// negotiation, ending in an active session.
//
// Grounded on the same teacher source as connector (internal/rdp/connect.go
// has no server-side equivalent — the teacher is client-only — so the
// server sequencing instead follows original_source/'s IronRDP
// ironrdp-connector::server module, restructured into this module's
// Step-driven State contract) and mirrors connector's shape deliberately:
// the two packages should read as obvious counterparts of each other.
package acceptor

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/rcarmo/go-rdp/protocol/caps"
	"github.com/rcarmo/go-rdp/protocol/gcc"
	"github.com/rcarmo/go-rdp/protocol/x224"
)

// serverUserChannelID is SERVER_CHANNEL_ID from MS-RDPBCGR: the fixed MCS
// user id the server always assigns the one client it serves.
const serverUserChannelID uint16 = 0x03EA

// serverIOChannelID is the fixed I/O channel id this module assigns;
// static virtual channels are then numbered upward from it.
const serverIOChannelID uint16 = 0x03EB

// Written mirrors connector.Written: how many bytes a Step call produced.
type Written struct{ n int }

func WrittenNothing() Written     { return Written{n: 0} }
func WrittenSize(n int) Written   { return Written{n: n} }
func (w Written) IsNothing() bool { return w.n == 0 }
func (w Written) Size() int       { return w.n }

// PDUHint mirrors connector.PDUHint.
type PDUHint func(buf []byte) (int, error)

func tpktHint(buf []byte) (int, error) { return x224.FindSize(buf) }

// State is one node of the server's accept sequence.
type State interface {
	Name() string
	NextPDUHint() PDUHint
	Step(input []byte) (output []byte, next State, err error)
}

// ErrConsumed mirrors connector.ErrConsumed.
var ErrConsumed = errors.New("acceptor: state machine already consumed")

// Options configures a server's accept sequence: everything the acceptor
// needs to know about the channels and capabilities it is prepared to
// offer before the first client byte arrives.
type Options struct {
	// SupportedProtocols is the SecurityProtocol bitset this server is
	// willing to negotiate, e.g. ProtocolSSL|ProtocolHybrid.
	SupportedProtocols x224.SecurityProtocol `validate:"required"`

	// Channels are the static virtual channels this server is prepared to
	// attach, keyed by name; only channels the client also requests are
	// actually joined.
	Channels []string

	// Capabilities are the server's own capability sets, sent verbatim in
	// the Demand Active PDU.
	Capabilities caps.List

	// Monitors, if non-empty, is offered via a Monitor Layout PDU when the
	// client advertises SUPPORT_MONITOR_LAYOUT_PDU.
	Monitors []gcc.MonitorDef

	SourceDescriptor string `validate:"max=256"`
}

var optionsValidator = validator.New()

func (o *Options) Validate() error { return optionsValidator.Struct(o) }

// InputEvent is a placeholder for the slow-path input PDUs the client may
// send during ConnectionFinalization, before the active session loop takes
// over; acceptor only accumulates them, it never interprets them.
type InputEvent struct {
	Raw []byte
}

// Result is what Accepted surfaces once the handshake is complete.
type Result struct {
	UserChannelID    uint16
	IOChannelID      uint16
	ChannelIDs       map[string]uint16
	ClientCaps       caps.List
	DesktopWidth     uint16
	DesktopHeight    uint16
	PendingInputs    []InputEvent
}

// Acceptor drives the server accept sequence one Step at a time.
type Acceptor struct {
	state  State
	result *Result
	err    error
}

// New starts a fresh acceptor waiting for the client's Connection Request.
func New(opts Options) (*Acceptor, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("acceptor: invalid options: %w", err)
	}
	return &Acceptor{state: &connectionInitiationWaitRequest{opts: opts}}, nil
}

func (a *Acceptor) NextPDUHint() PDUHint {
	if a.state == nil {
		return nil
	}
	return a.state.NextPDUHint()
}

func (a *Acceptor) Done() bool {
	if a.err != nil {
		return true
	}
	_, ok := a.state.(*accepted)
	return ok
}

func (a *Acceptor) Result() (*Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func (a *Acceptor) Step(input []byte) (Written, []byte, error) {
	if a.state == nil {
		return Written{}, nil, ErrConsumed
	}
	out, next, err := a.state.Step(input)
	if err != nil {
		a.err = err
		a.state = nil
		return Written{}, nil, err
	}
	if acc, ok := next.(*accepted); ok {
		a.result = &acc.result
	}
	a.state = next
	return WrittenSize(len(out)), out, nil
}
