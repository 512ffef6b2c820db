// Package x224 implements the TPKT-framed X.224 connection-oriented
// transport PDUs used to open and negotiate an RDP connection
// (MS-RDPBCGR 2.2.1.1 - 2.2.1.7).
package x224

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// TPKT header: version (1) + reserved (1) + length (2, big-endian, includes
// the 4-byte header itself).
const tpktHeaderSize = 4

const (
	tpktVersion = 3

	// X.224 PDU type codes (the high nibble of the first byte after length).
	codeCR byte = 0xE0 // Connection Request
	codeCC byte = 0xD0 // Connection Confirm
	codeDT byte = 0xF0 // Data
	codeDR byte = 0x80 // Disconnect Request
)

// NegotiationType is the type field of an RDP_NEG_* structure
// (MS-RDPBCGR 2.2.1.1.1).
type NegotiationType uint8

const (
	NegotiationTypeRequest  NegotiationType = 0x01
	NegotiationTypeResponse NegotiationType = 0x02
	NegotiationTypeFailure  NegotiationType = 0x03
)

// NegotiationRequestFlags are the flags field of an RDP Negotiation Request.
type NegotiationRequestFlags uint8

const (
	NegReqRestrictedAdminModeRequired          NegotiationRequestFlags = 0x01
	NegReqRedirectedAuthenticationModeRequired NegotiationRequestFlags = 0x02
	NegReqCorrelationInfoPresent               NegotiationRequestFlags = 0x08
)

// NegotiationResponseFlags are the flags field of an RDP Negotiation Response.
type NegotiationResponseFlags uint8

const (
	NegRspExtendedClientDataSupported NegotiationResponseFlags = 0x01
	NegRspDynVCGFXProtocolSupported   NegotiationResponseFlags = 0x02
	NegRspRDPNegRspReserved           NegotiationResponseFlags = 0x04
	NegRspRestrictedAdminModeSupported NegotiationResponseFlags = 0x08
	NegRspRedirectedAuthenticationModeSupported NegotiationResponseFlags = 0x10
)

// SecurityProtocol is the negotiated (or requested) security protocol
// bitset (MS-RDPBCGR 2.2.1.1.1).
type SecurityProtocol uint32

const (
	ProtocolRDP       SecurityProtocol = 0x00000000
	ProtocolSSL       SecurityProtocol = 0x00000001
	ProtocolHybrid    SecurityProtocol = 0x00000002
	ProtocolRDSTLS    SecurityProtocol = 0x00000004
	ProtocolHybridEx  SecurityProtocol = 0x00000008
)

// NegotiationFailureCode is the failureCode field of an RDP Negotiation
// Failure structure.
type NegotiationFailureCode uint32

const (
	FailureSSLRequiredByServer          NegotiationFailureCode = 0x00000001
	FailureSSLNotAllowedByServer        NegotiationFailureCode = 0x00000002
	FailureSSLCertNotOnServer           NegotiationFailureCode = 0x00000003
	FailureInconsistentFlags            NegotiationFailureCode = 0x00000004
	FailureHybridRequiredByServer       NegotiationFailureCode = 0x00000005
	FailureSSLWithUserAuthRequiredByServer NegotiationFailureCode = 0x00000006
)

// ConnectionRequest is the X.224 Connection Request PDU wrapping an
// optional RDP Negotiation Request (MS-RDPBCGR 2.2.1.1).
type ConnectionRequest struct {
	// Cookie is the optional "Cookie: mstshash=..." routing token, sent
	// without its own length prefix (terminated by CR LF).
	Cookie             string
	NegotiationFlags   NegotiationRequestFlags
	RequestedProtocols SecurityProtocol
	// HasNegotiation indicates whether the optional RDP_NEG_REQ is present.
	HasNegotiation bool
}

func (r *ConnectionRequest) Name() string { return "X224ConnectionRequest" }

func (r *ConnectionRequest) x224Size() int {
	// fixed X.224 CR fields: length-indicator(1) + code(1) + dst-ref(2) +
	// src-ref(2) + class-option(1) = 7, plus cookie bytes, plus negotiation.
	n := 7 + len(r.Cookie)
	if r.HasNegotiation {
		n += 8
	}
	return n
}

// Size returns the full TPKT+X.224 encoded size.
func (r *ConnectionRequest) Size() int {
	return tpktHeaderSize + r.x224Size()
}

func (r *ConnectionRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(r.Name(), dst, r.Size()); err != nil {
		return err
	}

	total := r.Size()
	dst.WriteU8(tpktVersion)
	dst.WriteU8(0) // reserved
	dst.WriteU16BE(uint16(total))

	liByte := byte(r.x224Size() - 1) // length indicator excludes itself
	dst.WriteU8(liByte)
	dst.WriteU8(codeCR)
	dst.WriteU16BE(0) // dst-ref
	dst.WriteU16BE(0) // src-ref
	dst.WriteU8(0)    // class + options

	if len(r.Cookie) > 0 {
		dst.WriteSlice([]byte(r.Cookie))
	}

	if r.HasNegotiation {
		dst.WriteU8(byte(NegotiationTypeRequest))
		dst.WriteU8(byte(r.NegotiationFlags))
		dst.WriteU16LE(8)
		dst.WriteU32LE(uint32(r.RequestedProtocols))
	}

	return nil
}

// DecodeConnectionRequest decodes a TPKT+X.224 Connection Request. The
// cookie (if any) is everything between the fixed X.224 header and a
// trailing RDP_NEG_REQ / CR-LF, per MS-RDPBCGR 2.2.1.1.
func DecodeConnectionRequest(src *cursor.Reader) (*ConnectionRequest, error) {
	const name = "X224ConnectionRequest"

	if err := pdu.EnsureFixedPartSize(name, src, tpktHeaderSize+7); err != nil {
		return nil, err
	}

	_ = src.ReadU8() // version
	_ = src.ReadU8() // reserved
	totalLen := src.ReadU16BE()

	li := src.ReadU8()
	code := src.ReadU8()
	if code&0xF0 != codeCR {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "code", Got: uint64(code), Expected: uint64(codeCR)}
	}
	_ = src.ReadU16BE() // dst-ref
	_ = src.ReadU16BE() // src-ref
	_ = src.ReadU8()    // class + options

	x224Len := int(li) + 1
	remaining := x224Len - 7
	if remaining < 0 || int(totalLen) != tpktHeaderSize+x224Len {
		return nil, &pdu.CrossFieldMismatchError{PDU: name, Fields: []string{"length", "li"}, Reason: "TPKT length disagrees with X.224 length indicator"}
	}

	req := &ConnectionRequest{}

	if remaining >= 8 {
		// Peek whether the tail is an RDP_NEG_REQ (type byte 0x01) preceded
		// by a cookie, by scanning for the negotiation structure at the end.
		tail, err := src.TryReadSlice(remaining)
		if err != nil {
			return nil, err
		}
		negOffset := len(tail) - 8
		if negOffset >= 0 && NegotiationType(tail[negOffset]) == NegotiationTypeRequest {
			req.Cookie = string(tail[:negOffset])
			req.HasNegotiation = true
			req.NegotiationFlags = NegotiationRequestFlags(tail[negOffset+1])
			nr := cursor.NewReader(tail[negOffset+2:])
			length := nr.ReadU16LE()
			if length != 8 {
				return nil, &pdu.InvalidFieldError{PDU: name, Field: "negotiation.length", Reason: "must be 8"}
			}
			req.RequestedProtocols = SecurityProtocol(nr.ReadU32LE())
		} else {
			req.Cookie = string(tail)
		}
	} else if remaining > 0 {
		tail, err := src.TryReadSlice(remaining)
		if err != nil {
			return nil, err
		}
		req.Cookie = string(tail)
	}

	return req, nil
}

// ConnectionConfirm is the X.224 Connection Confirm PDU wrapping an RDP
// Negotiation Response or Failure (MS-RDPBCGR 2.2.1.2).
type ConnectionConfirm struct {
	// Type distinguishes Response vs Failure; zero value means neither
	// negotiation structure is present (legacy RDP 4.0 path).
	Type             NegotiationType
	ResponseFlags    NegotiationResponseFlags
	SelectedProtocol SecurityProtocol
	FailureCode      NegotiationFailureCode
}

func (c *ConnectionConfirm) Name() string { return "X224ConnectionConfirm" }

func (c *ConnectionConfirm) x224Size() int {
	n := 7
	if c.Type == NegotiationTypeResponse || c.Type == NegotiationTypeFailure {
		n += 8
	}
	return n
}

func (c *ConnectionConfirm) Size() int { return tpktHeaderSize + c.x224Size() }

func (c *ConnectionConfirm) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}

	dst.WriteU8(tpktVersion)
	dst.WriteU8(0)
	dst.WriteU16BE(uint16(c.Size()))

	dst.WriteU8(byte(c.x224Size() - 1))
	dst.WriteU8(codeCC)
	dst.WriteU16BE(0)
	dst.WriteU16BE(0)
	dst.WriteU8(0)

	switch c.Type {
	case NegotiationTypeResponse:
		dst.WriteU8(byte(NegotiationTypeResponse))
		dst.WriteU8(byte(c.ResponseFlags))
		dst.WriteU16LE(8)
		dst.WriteU32LE(uint32(c.SelectedProtocol))
	case NegotiationTypeFailure:
		dst.WriteU8(byte(NegotiationTypeFailure))
		dst.WriteU8(0)
		dst.WriteU16LE(8)
		dst.WriteU32LE(uint32(c.FailureCode))
	}

	return nil
}

func DecodeConnectionConfirm(src *cursor.Reader) (*ConnectionConfirm, error) {
	const name = "X224ConnectionConfirm"

	if err := pdu.EnsureFixedPartSize(name, src, tpktHeaderSize+7); err != nil {
		return nil, err
	}

	_ = src.ReadU8()
	_ = src.ReadU8()
	totalLen := src.ReadU16BE()

	li := src.ReadU8()
	code := src.ReadU8()
	if code&0xF0 != codeCC {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "code", Got: uint64(code), Expected: uint64(codeCC)}
	}
	_ = src.ReadU16BE()
	_ = src.ReadU16BE()
	_ = src.ReadU8()

	x224Len := int(li) + 1
	if int(totalLen) != tpktHeaderSize+x224Len {
		return nil, &pdu.CrossFieldMismatchError{PDU: name, Fields: []string{"length", "li"}, Reason: "TPKT length disagrees with X.224 length indicator"}
	}

	confirm := &ConnectionConfirm{}

	remaining := x224Len - 6
	if remaining >= 8 {
		negType, err := src.TryReadSlice(1)
		if err != nil {
			return nil, err
		}
		confirm.Type = NegotiationType(negType[0])

		switch confirm.Type {
		case NegotiationTypeResponse:
			flags, err := src.TryReadSlice(1)
			if err != nil {
				return nil, err
			}
			confirm.ResponseFlags = NegotiationResponseFlags(flags[0])
			body, err := src.TryReadSlice(6)
			if err != nil {
				return nil, err
			}
			br := cursor.NewReader(body)
			length := br.ReadU16LE()
			if length != 8 {
				return nil, &pdu.InvalidFieldError{PDU: name, Field: "negotiation.length", Reason: "must be 8"}
			}
			confirm.SelectedProtocol = SecurityProtocol(br.ReadU32LE())
		case NegotiationTypeFailure:
			_, err := src.TryReadSlice(1) // flags (reserved for failure)
			if err != nil {
				return nil, err
			}
			body, err := src.TryReadSlice(6)
			if err != nil {
				return nil, err
			}
			br := cursor.NewReader(body)
			length := br.ReadU16LE()
			if length != 8 {
				return nil, &pdu.InvalidFieldError{PDU: name, Field: "negotiation.length", Reason: "must be 8"}
			}
			confirm.FailureCode = NegotiationFailureCode(br.ReadU32LE())
		default:
			return nil, &pdu.InvalidFieldError{PDU: name, Field: "negotiation.type", Reason: "unknown negotiation structure type"}
		}
	}

	return confirm, nil
}

// DataHeader is the 3-byte X.224 Data TPDU header that wraps every MCS PDU
// after the connection phase (MS-RDPBCGR 2.2.1.3, 2.2.1.4).
type DataHeader struct{}

const dataHeaderSize = tpktHeaderSize + 3

// WrapData prepends TPKT+X.224 Data headers to payload and returns the
// full frame. payload is the encoded MCS PDU.
func WrapData(payload []byte) []byte {
	out := make([]byte, dataHeaderSize+len(payload))
	w := cursor.NewWriter(out)
	w.WriteU8(tpktVersion)
	w.WriteU8(0)
	w.WriteU16BE(uint16(len(out)))
	w.WriteU8(2) // length indicator for a 2-byte-body Data TPDU header
	w.WriteU8(codeDT)
	w.WriteU8(0x80) // EOT bit set, no sequence number used in class 0
	w.WriteSlice(payload)
	return out
}

// UnwrapData strips the TPKT+X.224 Data headers and returns the remaining
// MCS payload, borrowed from src.
func UnwrapData(src *cursor.Reader) ([]byte, error) {
	const name = "X224Data"

	if err := pdu.EnsureFixedPartSize(name, src, dataHeaderSize); err != nil {
		return nil, err
	}

	_ = src.ReadU8()
	_ = src.ReadU8()
	totalLen := src.ReadU16BE()

	_ = src.ReadU8() // length indicator
	code := src.ReadU8()
	if code&0xF0 != codeDT {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "code", Got: uint64(code), Expected: uint64(codeDT)}
	}
	_ = src.ReadU8() // EOT/sequence

	bodyLen := int(totalLen) - dataHeaderSize
	if bodyLen < 0 {
		return nil, &pdu.CrossFieldMismatchError{PDU: name, Fields: []string{"length"}, Reason: "TPKT length shorter than header"}
	}

	return src.TryReadSlice(bodyLen)
}

// FindSize is a framed.Hint implementation: it peeks the 4-byte TPKT header
// and reports the total frame length it declares.
func FindSize(buf []byte) (int, error) {
	if len(buf) < tpktHeaderSize {
		return 0, nil
	}
	r := cursor.NewReader(buf)
	_ = r.ReadU8()
	_ = r.ReadU8()
	total := int(r.ReadU16BE())
	if total < tpktHeaderSize {
		return 0, &pdu.InvalidFieldError{PDU: "TPKT", Field: "length", Reason: "shorter than header"}
	}
	return total, nil
}
