// Package mcs implements the Multipoint Communication Service PDUs used to
// establish and multiplex RDP's virtual channels over the X.224 transport
// connection (ITU-T T.125, MS-RDPBCGR 2.2.1.3 - 2.2.1.12).
package mcs

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// Domain MCS PDU choice tags (T.125 Section 7, connect-type + domain-type).
const (
	tagConnectInitial  uint16 = 0x7F65
	tagConnectResponse uint16 = 0x7F66
)

// DomainMCSPDU choice values for the per-octet-encoded PDUs that follow
// the connect phase, shifted left 2 to make room for the 2-bit
// initiator/non-initiator option field used by some of them.
const (
	pduErectDomainRequest     byte = 1
	pduDisconnectProvider     byte = 8
	pduAttachUserRequest      byte = 10
	pduAttachUserConfirm      byte = 11
	pduChannelJoinRequest     byte = 14
	pduChannelJoinConfirm     byte = 15
	pduSendDataRequest        byte = 25
	pduSendDataIndication     byte = 26
)

// DomainParameters is the T.125 DomainParameters SEQUENCE negotiated during
// Connect-Initial/Connect-Response.
type DomainParameters struct {
	MaxChannelIDs   uint32
	MaxUserIDs      uint32
	MaxTokenIDs     uint32
	NumPriorities   uint32
	MinThroughput   uint32
	MaxHeight       uint32
	MaxMCSPDUSize   uint32
	ProtocolVersion uint32
}

func (d DomainParameters) encode(dst *cursor.Writer) {
	perWriteInt(dst, d.MaxChannelIDs, 0, 0xFFFF)
	perWriteInt(dst, d.MaxUserIDs, 0, 0xFFFF)
	perWriteInt(dst, d.MaxTokenIDs, 0, 0xFFFF)
	perWriteInt(dst, d.NumPriorities, 0, 0xFFFF)
	perWriteInt(dst, d.MinThroughput, 0, 0xFFFF)
	perWriteInt(dst, d.MaxHeight, 0, 0xFFFF)
	perWriteInt(dst, d.MaxMCSPDUSize, 0, 0xFFFF)
	perWriteInt(dst, d.ProtocolVersion, 0, 0xFFFF)
}

func decodeDomainParameters(name string, src *cursor.Reader) (DomainParameters, error) {
	var d DomainParameters
	fields := []*uint32{
		&d.MaxChannelIDs, &d.MaxUserIDs, &d.MaxTokenIDs, &d.NumPriorities,
		&d.MinThroughput, &d.MaxHeight, &d.MaxMCSPDUSize, &d.ProtocolVersion,
	}
	for _, f := range fields {
		v, err := perReadInt(name, src)
		if err != nil {
			return DomainParameters{}, err
		}
		*f = v
	}
	return d, nil
}

const domainParamsSize = 8 * 2

// ConnectInitial is the client's MCS Connect-Initial PDU. UserData carries
// the opaque GCC Conference Create Request produced by the gcc package.
type ConnectInitial struct {
	CallingDomainSelector []byte
	CalledDomainSelector  []byte
	UpwardFlag            bool
	TargetParameters      DomainParameters
	MinimumParameters     DomainParameters
	MaximumParameters     DomainParameters
	UserData              []byte
}

func (c *ConnectInitial) Name() string { return "MCSConnectInitial" }

func (c *ConnectInitial) Size() int {
	return 2 + 1 + len(c.CallingDomainSelector) +
		1 + len(c.CalledDomainSelector) +
		1 + 3*domainParamsSize + lengthOverhead(len(c.UserData)) + len(c.UserData)
}

func (c *ConnectInitial) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	dst.WriteU16BE(tagConnectInitial)
	perWriteLength(dst, len(c.CallingDomainSelector))
	dst.WriteSlice(c.CallingDomainSelector)
	perWriteLength(dst, len(c.CalledDomainSelector))
	dst.WriteSlice(c.CalledDomainSelector)
	up := byte(0)
	if c.UpwardFlag {
		up = 0xFF
	}
	dst.WriteU8(up)
	c.TargetParameters.encode(dst)
	c.MinimumParameters.encode(dst)
	c.MaximumParameters.encode(dst)
	perWriteLength(dst, len(c.UserData))
	dst.WriteSlice(c.UserData)
	return nil
}

func DecodeConnectInitial(src *cursor.Reader) (*ConnectInitial, error) {
	const name = "MCSConnectInitial"
	if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
		return nil, err
	}
	tag := src.ReadU16BE()
	if tag != uint16(tagConnectInitial) {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "tag", Got: uint64(tag), Expected: uint64(tagConnectInitial)}
	}

	c := &ConnectInitial{}

	n, err := perReadLength(name, src)
	if err != nil {
		return nil, err
	}
	if c.CallingDomainSelector, err = src.TryReadSlice(n); err != nil {
		return nil, err
	}

	n, err = perReadLength(name, src)
	if err != nil {
		return nil, err
	}
	if c.CalledDomainSelector, err = src.TryReadSlice(n); err != nil {
		return nil, err
	}

	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return nil, err
	}
	c.UpwardFlag = src.ReadU8() != 0

	if c.TargetParameters, err = decodeDomainParameters(name, src); err != nil {
		return nil, err
	}
	if c.MinimumParameters, err = decodeDomainParameters(name, src); err != nil {
		return nil, err
	}
	if c.MaximumParameters, err = decodeDomainParameters(name, src); err != nil {
		return nil, err
	}

	n, err = perReadLength(name, src)
	if err != nil {
		return nil, err
	}
	if c.UserData, err = src.TryReadSlice(n); err != nil {
		return nil, err
	}

	return c, nil
}

// ConnectResponse is the server's MCS Connect-Response PDU. UserData
// carries the opaque GCC Conference Create Response.
type ConnectResponse struct {
	Result     byte
	CalledConnectID uint32
	Parameters DomainParameters
	UserData   []byte
}

func (c *ConnectResponse) Name() string { return "MCSConnectResponse" }

func (c *ConnectResponse) Size() int {
	return 2 + 1 + 2 + domainParamsSize + lengthOverhead(len(c.UserData)) + len(c.UserData)
}

func (c *ConnectResponse) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	dst.WriteU16BE(tagConnectResponse)
	dst.WriteU8(c.Result)
	dst.WriteU16BE(uint16(c.CalledConnectID))
	c.Parameters.encode(dst)
	perWriteLength(dst, len(c.UserData))
	dst.WriteSlice(c.UserData)
	return nil
}

func DecodeConnectResponse(src *cursor.Reader) (*ConnectResponse, error) {
	const name = "MCSConnectResponse"
	if err := pdu.EnsureFixedPartSize(name, src, 5); err != nil {
		return nil, err
	}
	tag := src.ReadU16BE()
	if tag != uint16(tagConnectResponse) {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "tag", Got: uint64(tag), Expected: uint64(tagConnectResponse)}
	}
	c := &ConnectResponse{}
	c.Result = src.ReadU8()
	c.CalledConnectID = uint32(src.ReadU16BE())

	var err error
	if c.Parameters, err = decodeDomainParameters(name, src); err != nil {
		return nil, err
	}

	n, err := perReadLength(name, src)
	if err != nil {
		return nil, err
	}
	if c.UserData, err = src.TryReadSlice(n); err != nil {
		return nil, err
	}

	return c, nil
}

// ErectDomainRequest is the client's Erect-Domain-Request PDU, sent
// immediately after Connect-Response is accepted.
type ErectDomainRequest struct {
	SubHeight uint32
	SubInterval uint32
}

func (e *ErectDomainRequest) Name() string { return "MCSErectDomainRequest" }
func (e *ErectDomainRequest) Size() int    { return 1 + 4 }

func (e *ErectDomainRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(e.Name(), dst, e.Size()); err != nil {
		return err
	}
	dst.WriteU8(pduErectDomainRequest << 2)
	perWriteInt(dst, e.SubHeight, 0, 0xFFFF)
	perWriteInt(dst, e.SubInterval, 0, 0xFFFF)
	return nil
}

func DecodeErectDomainRequest(src *cursor.Reader) (*ErectDomainRequest, error) {
	const name = "MCSErectDomainRequest"
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return nil, err
	}
	choice := src.ReadU8()
	if choice>>2 != pduErectDomainRequest {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(choice >> 2), Expected: uint64(pduErectDomainRequest)}
	}
	e := &ErectDomainRequest{}
	var err error
	if e.SubHeight, err = perReadInt(name, src); err != nil {
		return nil, err
	}
	if e.SubInterval, err = perReadInt(name, src); err != nil {
		return nil, err
	}
	return e, nil
}

// AttachUserRequest carries no fields beyond the choice selector.
type AttachUserRequest struct{}

func (a *AttachUserRequest) Name() string { return "MCSAttachUserRequest" }
func (a *AttachUserRequest) Size() int    { return 1 }
func (a *AttachUserRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(a.Name(), dst, a.Size()); err != nil {
		return err
	}
	dst.WriteU8(pduAttachUserRequest << 2)
	return nil
}

func DecodeAttachUserRequest(src *cursor.Reader) (*AttachUserRequest, error) {
	const name = "MCSAttachUserRequest"
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return nil, err
	}
	choice := src.ReadU8()
	if choice>>2 != pduAttachUserRequest {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(choice >> 2), Expected: uint64(pduAttachUserRequest)}
	}
	return &AttachUserRequest{}, nil
}

// AttachUserConfirm is the server's reply, carrying the result code and
// (on success) the newly assigned user channel ID.
type AttachUserConfirm struct {
	Result    byte
	InitiatorID uint16
}

func (a *AttachUserConfirm) Name() string { return "MCSAttachUserConfirm" }
func (a *AttachUserConfirm) Size() int    { return 1 + 1 + 2 }

func (a *AttachUserConfirm) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(a.Name(), dst, a.Size()); err != nil {
		return err
	}
	dst.WriteU8(pduAttachUserConfirm << 2)
	dst.WriteU8(a.Result)
	dst.WriteU16BE(a.InitiatorID)
	return nil
}

func DecodeAttachUserConfirm(src *cursor.Reader) (*AttachUserConfirm, error) {
	const name = "MCSAttachUserConfirm"
	if err := pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return nil, err
	}
	choice := src.ReadU8()
	if choice>>2 != pduAttachUserConfirm {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(choice >> 2), Expected: uint64(pduAttachUserConfirm)}
	}
	a := &AttachUserConfirm{}
	a.Result = src.ReadU8()
	a.InitiatorID = src.ReadU16BE()
	return a, nil
}

// ChannelJoinRequest asks the server to join InitiatorID to ChannelID.
type ChannelJoinRequest struct {
	InitiatorID uint16
	ChannelID   uint16
}

func (c *ChannelJoinRequest) Name() string { return "MCSChannelJoinRequest" }
func (c *ChannelJoinRequest) Size() int    { return 1 + 2 + 2 }

func (c *ChannelJoinRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	dst.WriteU8(pduChannelJoinRequest << 2)
	dst.WriteU16BE(c.InitiatorID)
	dst.WriteU16BE(c.ChannelID)
	return nil
}

func DecodeChannelJoinRequest(src *cursor.Reader) (*ChannelJoinRequest, error) {
	const name = "MCSChannelJoinRequest"
	if err := pdu.EnsureFixedPartSize(name, src, 5); err != nil {
		return nil, err
	}
	choice := src.ReadU8()
	if choice>>2 != pduChannelJoinRequest {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(choice >> 2), Expected: uint64(pduChannelJoinRequest)}
	}
	c := &ChannelJoinRequest{}
	c.InitiatorID = src.ReadU16BE()
	c.ChannelID = src.ReadU16BE()
	return c, nil
}

// ChannelJoinConfirm is the server's reply, echoing the requested channel
// and (on success) the channel actually joined.
type ChannelJoinConfirm struct {
	Result      byte
	InitiatorID uint16
	Requested   uint16
	ChannelID   uint16
}

func (c *ChannelJoinConfirm) Name() string { return "MCSChannelJoinConfirm" }
func (c *ChannelJoinConfirm) Size() int    { return 1 + 1 + 2 + 2 + 2 }

func (c *ChannelJoinConfirm) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	dst.WriteU8(pduChannelJoinConfirm << 2)
	dst.WriteU8(c.Result)
	dst.WriteU16BE(c.InitiatorID)
	dst.WriteU16BE(c.Requested)
	dst.WriteU16BE(c.ChannelID)
	return nil
}

func DecodeChannelJoinConfirm(src *cursor.Reader) (*ChannelJoinConfirm, error) {
	const name = "MCSChannelJoinConfirm"
	if err := pdu.EnsureFixedPartSize(name, src, 8); err != nil {
		return nil, err
	}
	choice := src.ReadU8()
	if choice>>2 != pduChannelJoinConfirm {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(choice >> 2), Expected: uint64(pduChannelJoinConfirm)}
	}
	c := &ChannelJoinConfirm{}
	c.Result = src.ReadU8()
	c.InitiatorID = src.ReadU16BE()
	c.Requested = src.ReadU16BE()
	c.ChannelID = src.ReadU16BE()
	return c, nil
}

// SendDataRequest (client->server) and SendDataIndication (server->client)
// carry arbitrary upper-layer payload (security headers, capability
// exchange, slow/fast-path data) addressed to ChannelID.
type SendDataRequest struct {
	InitiatorID uint16
	ChannelID   uint16
	Payload     []byte
}

func (s *SendDataRequest) Name() string { return "MCSSendDataRequest" }
func (s *SendDataRequest) Size() int {
	return 1 + 2 + 2 + 1 + lengthOverhead(len(s.Payload)) + len(s.Payload)
}

func lengthOverhead(n int) int {
	if n <= 0x7F {
		return 1
	}
	return 2
}

func (s *SendDataRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	dst.WriteU8(pduSendDataRequest << 2)
	dst.WriteU16BE(s.InitiatorID)
	dst.WriteU16BE(s.ChannelID)
	dst.WriteU8(0x70) // data priority + segmentation flags (whole PDU)
	perWriteLength(dst, len(s.Payload))
	dst.WriteSlice(s.Payload)
	return nil
}

func DecodeSendDataRequest(src *cursor.Reader) (*SendDataRequest, error) {
	const name = "MCSSendDataRequest"
	if err := pdu.EnsureFixedPartSize(name, src, 6); err != nil {
		return nil, err
	}
	choice := src.ReadU8()
	if choice>>2 != pduSendDataRequest {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(choice >> 2), Expected: uint64(pduSendDataRequest)}
	}
	s := &SendDataRequest{}
	s.InitiatorID = src.ReadU16BE()
	s.ChannelID = src.ReadU16BE()
	_ = src.ReadU8() // priority/segmentation

	n, err := perReadLength(name, src)
	if err != nil {
		return nil, err
	}
	if s.Payload, err = src.TryReadSlice(n); err != nil {
		return nil, err
	}
	return s, nil
}

// SendDataIndication has the identical wire shape to SendDataRequest; it is
// distinguished only by direction and choice tag.
type SendDataIndication struct {
	InitiatorID uint16
	ChannelID   uint16
	Payload     []byte
}

func (s *SendDataIndication) Name() string { return "MCSSendDataIndication" }
func (s *SendDataIndication) Size() int {
	return 1 + 2 + 2 + 1 + lengthOverhead(len(s.Payload)) + len(s.Payload)
}

func (s *SendDataIndication) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	dst.WriteU8(pduSendDataIndication << 2)
	dst.WriteU16BE(s.InitiatorID)
	dst.WriteU16BE(s.ChannelID)
	dst.WriteU8(0x70)
	perWriteLength(dst, len(s.Payload))
	dst.WriteSlice(s.Payload)
	return nil
}

func DecodeSendDataIndication(src *cursor.Reader) (*SendDataIndication, error) {
	const name = "MCSSendDataIndication"
	if err := pdu.EnsureFixedPartSize(name, src, 6); err != nil {
		return nil, err
	}
	choice := src.ReadU8()
	if choice>>2 != pduSendDataIndication {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(choice >> 2), Expected: uint64(pduSendDataIndication)}
	}
	s := &SendDataIndication{}
	s.InitiatorID = src.ReadU16BE()
	s.ChannelID = src.ReadU16BE()
	_ = src.ReadU8()

	n, err := perReadLength(name, src)
	if err != nil {
		return nil, err
	}
	if s.Payload, err = src.TryReadSlice(n); err != nil {
		return nil, err
	}
	return s, nil
}

// DisconnectProviderUltimatum is sent by either side to tear down the MCS
// domain, carrying a reason code (MS-RDPBCGR 2.2.2.3).
type DisconnectProviderUltimatum struct {
	Reason byte
}

func (d *DisconnectProviderUltimatum) Name() string { return "MCSDisconnectProviderUltimatum" }
func (d *DisconnectProviderUltimatum) Size() int    { return 2 }

func (d *DisconnectProviderUltimatum) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(d.Name(), dst, d.Size()); err != nil {
		return err
	}
	dst.WriteU8((pduDisconnectProvider << 2) | (d.Reason >> 6))
	dst.WriteU8(d.Reason << 2)
	return nil
}

func DecodeDisconnectProviderUltimatum(src *cursor.Reader) (*DisconnectProviderUltimatum, error) {
	const name = "MCSDisconnectProviderUltimatum"
	if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
		return nil, err
	}
	b0 := src.ReadU8()
	if b0>>2 != pduDisconnectProvider {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "choice", Got: uint64(b0 >> 2), Expected: uint64(pduDisconnectProvider)}
	}
	b1 := src.ReadU8()
	reason := (b0<<6)&0xC0 | (b1 >> 2)
	return &DisconnectProviderUltimatum{Reason: reason}, nil
}
