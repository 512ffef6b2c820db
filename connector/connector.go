// Package connector implements the client-side RDP connection state
// machine: the sequence of destructive states that walks a fresh
// transport from an X.224 Connection Request through MCS, security,
// licensing, and capability negotiation up to an active session.
//
// Every state is a pure function of its input: it consumes zero or one
// decoded PDU, returns bytes to send and the next state, and never
// touches a socket, a clock, or a logger itself. Grounded on the
// teacher's internal/rdp/connect.go (the phase names and per-phase wire
// logic) and restructured into the step-driven shape used by
// Devolutions/IronRDP's ironrdp-connector crate (see
// original_source/_INDEX.md).
package connector

import (
	"errors"
	"fmt"

	"github.com/rcarmo/go-rdp/protocol/caps"
	"github.com/rcarmo/go-rdp/protocol/x224"
)

// Written reports how many bytes a Step call produced. A zero value
// (WrittenNothing) means the state consumed input and transitioned
// without emitting anything (e.g. while waiting on an external TLS
// upgrade).
type Written struct {
	n int
}

func WrittenNothing() Written      { return Written{n: 0} }
func WrittenSize(n int) Written    { return Written{n: n} }
func (w Written) IsNothing() bool  { return w.n == 0 }
func (w Written) Size() int        { return w.n }

// PDUHint tells the framed driver how many bytes constitute the next
// inbound PDU, given however many bytes are buffered so far. It returns
// 0 when more bytes are needed before a decision can be made.
type PDUHint func(buf []byte) (int, error)

// tpktHint is the hint shared by every state after ConnectionInitiation:
// every later PDU still rides inside a TPKT+X.224 Data frame.
func tpktHint(buf []byte) (int, error) { return x224.FindSize(buf) }

// State is one node of the connection sequence. Step destructively
// consumes the receiver (by convention, the Connector overwrites its
// stored state with the returned next State, so a state value is only
// ever stepped once).
type State interface {
	Name() string
	NextPDUHint() PDUHint
	Step(input []byte) (output []byte, next State, err error)
}

// ErrConsumed is returned by a terminal or errored Connector on any
// further Step call: the single-consumer rule spec.md's destructive
// state machine relies on, enforced here by a sentinel error instead of
// Rust's move-and-panic idiom.
var ErrConsumed = errors.New("connector: state machine already consumed")

// Result is what Connected surfaces once the handshake is complete.
type Result struct {
	UserChannelID   uint16
	IOChannelID     uint16
	ServerChannelID uint16
	ChannelIDs      map[string]uint16
	ServerCaps      caps.List
	DesktopWidth    uint16
	DesktopHeight   uint16
}

// Connector drives the client connection sequence one Step at a time.
type Connector struct {
	state  State
	result *Result
	err    error
}

// New starts a fresh connector in ConnectionInitiationSendRequest.
func New(opts Options) (*Connector, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("connector: invalid options: %w", err)
	}
	return &Connector{state: &connectionInitiationSendRequest{opts: opts}}, nil
}

// NextPDUHint asks the current state how many bytes it needs, or nil if
// it produces output without consuming input.
func (c *Connector) NextPDUHint() PDUHint {
	if c.state == nil {
		return nil
	}
	return c.state.NextPDUHint()
}

// Done reports whether the connector has reached Connected (or failed).
func (c *Connector) Done() bool {
	if c.err != nil {
		return true
	}
	_, ok := c.state.(*connected)
	return ok
}

// Result returns the handshake outcome; valid only once Done() is true
// with a nil error.
func (c *Connector) Result() (*Result, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

// Step advances the state machine by one transition, consuming input
// (empty when the current state's hint is nil) and returning bytes to
// send on the wire.
func (c *Connector) Step(input []byte) (Written, []byte, error) {
	if c.state == nil {
		return Written{}, nil, ErrConsumed
	}
	out, next, err := c.state.Step(input)
	if err != nil {
		c.err = err
		c.state = nil
		return Written{}, nil, err
	}
	if conn, ok := next.(*connected); ok {
		c.result = &conn.result
	}
	c.state = next
	return WrittenSize(len(out)), out, nil
}
