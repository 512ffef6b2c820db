// Package gcc implements the Generic Conference Control (T.124)
// Conference-Create-Request/Response envelope and the client/server data
// blocks it carries, used to negotiate core, security, network, cluster,
// monitor, message-channel, and multitransport settings during connection
// (MS-RDPBCGR 2.2.1.3 - 2.2.1.13).
package gcc

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// ConferenceCreateRequest wraps the concatenated client data blocks
// (core/security/network/cluster/monitor/...) in the GCC PER envelope.
type ConferenceCreateRequest struct {
	UserData []byte
}

func (r *ConferenceCreateRequest) Name() string { return "GCCConferenceCreateRequest" }

func (r *ConferenceCreateRequest) Size() int {
	return 1 + 5 + lengthFieldSize(uint16(14+len(r.UserData))) +
		1 + 1 + 1 + 1 + 1 + 1 + 4 + len(r.UserData)
}

func lengthFieldSize(n uint16) int {
	if n > 0x7F {
		return 2
	}
	return 1
}

func (r *ConferenceCreateRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(r.Name(), dst, r.Size()); err != nil {
		return err
	}

	perWriteChoice(dst, 0)
	perWriteObjectIdentifier(dst, t124_02_98_oid)
	perWriteLength(dst, uint16(14+len(r.UserData)))

	perWriteChoice(dst, 0)
	perWriteSelection(dst, 0x08)

	perWriteNumericString(dst, "1", 1)
	perWritePadding(dst, 1)
	perWriteNumberOfSet(dst, 1)
	perWriteChoice(dst, 0xc0)
	perWriteOctetStream(dst, h221CSKey, 4)
	dst.WriteSlice(r.UserData)

	return nil
}

// DecodeConferenceCreateRequest reads the envelope and returns the raw
// concatenated client data blocks for the caller to split.
func DecodeConferenceCreateRequest(src *cursor.Reader) (*ConferenceCreateRequest, error) {
	const name = "GCCConferenceCreateRequest"

	if _, err := perReadChoice(name, src); err != nil {
		return nil, err
	}
	if err := perReadObjectIdentifier(name, src, t124_02_98_oid); err != nil {
		return nil, err
	}
	length, err := perReadLength(name, src)
	if err != nil {
		return nil, err
	}

	if _, err := perReadChoice(name, src); err != nil {
		return nil, err
	}
	if _, err := perReadSelection(name, src); err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(name, src, 1+1+1+1); err != nil {
		return nil, err
	}
	_ = src.ReadU8() // numeric string "1"
	_ = src.ReadU8() // padding
	_ = src.ReadU8() // number of GCC_UserData sets
	_ = src.ReadU8() // choice 0xc0
	if err := perReadOctetStream(name, src, h221CSKey, 4); err != nil {
		return nil, err
	}

	if int(length) < 14 {
		return nil, &pdu.InvalidFieldError{PDU: name, Field: "length", Reason: "shorter than GCC fixed overhead"}
	}
	userDataLen := int(length) - 14
	data, err := src.TryReadSlice(userDataLen)
	if err != nil {
		return nil, err
	}

	return &ConferenceCreateRequest{UserData: data}, nil
}

// ConferenceCreateResponse wraps the server's concatenated data blocks.
type ConferenceCreateResponse struct {
	UserData []byte
}

func (r *ConferenceCreateResponse) Name() string { return "GCCConferenceCreateResponse" }

func (r *ConferenceCreateResponse) Size() int {
	return 1 + 5 + lengthFieldSize(uint16(12+len(r.UserData))) +
		1 + 2 + 1 + 1 + 1 + 1 + 4 + lengthFieldSize(uint16(len(r.UserData))) + len(r.UserData)
}

func (r *ConferenceCreateResponse) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(r.Name(), dst, r.Size()); err != nil {
		return err
	}

	perWriteChoice(dst, 0)
	perWriteObjectIdentifier(dst, t124_02_98_oid)
	perWriteLength(dst, uint16(12+len(r.UserData)))

	perWriteChoice(dst, 0)
	dst.WriteU16BE(1001) // node ID
	dst.WriteU8(0)       // tag (length 0)
	dst.WriteU8(0)       // result: rt-successful
	perWriteNumberOfSet(dst, 1)
	perWriteChoice(dst, 0xc0)
	perWriteOctetStream(dst, h221SCKey, 4)
	perWriteLength(dst, uint16(len(r.UserData)))
	dst.WriteSlice(r.UserData)

	return nil
}

func DecodeConferenceCreateResponse(src *cursor.Reader) (*ConferenceCreateResponse, error) {
	const name = "GCCConferenceCreateResponse"

	if _, err := perReadChoice(name, src); err != nil {
		return nil, err
	}
	if err := perReadObjectIdentifier(name, src, t124_02_98_oid); err != nil {
		return nil, err
	}
	if _, err := perReadLength(name, src); err != nil {
		return nil, err
	}

	if _, err := perReadChoice(name, src); err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(name, src, 2+1+1); err != nil {
		return nil, err
	}
	_ = src.ReadU16BE() // node ID
	_ = src.ReadU8()    // tag length
	result := src.ReadU8()
	if result != 0 {
		return nil, &pdu.InvalidFieldError{PDU: name, Field: "result", Reason: "conference creation was not successful"}
	}
	if _, err := perReadNumberOfSet(name, src); err != nil {
		return nil, err
	}
	if _, err := perReadChoice(name, src); err != nil {
		return nil, err
	}
	if err := perReadOctetStream(name, src, h221SCKey, 4); err != nil {
		return nil, err
	}

	length, err := perReadLength(name, src)
	if err != nil {
		return nil, err
	}
	data, err := src.TryReadSlice(int(length))
	if err != nil {
		return nil, err
	}

	return &ConferenceCreateResponse{UserData: data}, nil
}
