// Package licensing implements the MS-RDPELE license exchange PDUs. This
// module only ever drives the server-denies-licensing shortcut: a real
// licensing server issues a New License; rdp-proxy always answers with a
// Valid Client error alert and proceeds straight to capability exchange.
package licensing

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// Preamble message types (MS-RDPELE 2.2.2.1).
const (
	MsgTypeLicenseRequest        byte = 0x01
	MsgTypePlatformChallenge     byte = 0x02
	MsgTypeNewLicense            byte = 0x03
	MsgTypeUpgradeLicense        byte = 0x04
	MsgTypeLicenseInfo           byte = 0x12
	MsgTypeNewLicenseRequest     byte = 0x13
	MsgTypePlatformChallengeResponse byte = 0x15
	MsgTypeErrorAlert            byte = 0xFF
)

// Preamble flags (MS-RDPELE 2.2.2.1).
const (
	PreambleVersion3        byte = 0x03
	PreambleExtendedError   byte = 0x80
)

// Error/state-transition codes used by the Valid-Client shortcut
// (MS-RDPELE 2.2.2.3).
const (
	ErrorSuccess            uint32 = 0x00000000
	ErrorInvalidServerCertificate uint32 = 0x00000001
	StateTotalAbort         uint32 = 0x00000001
	StateNoTransition       uint32 = 0x00000002
)

// Preamble is the 4-byte LICENSE_PREAMBLE prefixing every licensing PDU.
type Preamble struct {
	MsgType byte
	Flags   byte
	// MsgSize includes the preamble itself.
	MsgSize uint16
}

func (p *Preamble) Name() string { return "LicensingPreamble" }
func (p *Preamble) Size() int    { return 4 }

func (p *Preamble) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(p.Name(), dst, p.Size()); err != nil {
		return err
	}
	dst.WriteU8(p.MsgType)
	dst.WriteU8(p.Flags)
	dst.WriteU16LE(p.MsgSize)
	return nil
}

func DecodePreamble(src *cursor.Reader) (*Preamble, error) {
	const name = "LicensingPreamble"
	if err := pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return nil, err
	}
	p := &Preamble{}
	p.MsgType = src.ReadU8()
	p.Flags = src.ReadU8()
	p.MsgSize = src.ReadU16LE()
	return p, nil
}

// BinaryBlob is LICENSE_BINARY_BLOB (MS-RDPELE 2.2.2.4): a typed, opaque
// byte string.
type BinaryBlob struct {
	BlobType uint16
	Data     []byte
}

func (b *BinaryBlob) Name() string { return "LicensingBinaryBlob" }
func (b *BinaryBlob) Size() int    { return 4 + len(b.Data) }

func (b *BinaryBlob) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(b.Name(), dst, b.Size()); err != nil {
		return err
	}
	dst.WriteU16LE(b.BlobType)
	dst.WriteU16LE(uint16(len(b.Data)))
	dst.WriteSlice(b.Data)
	return nil
}

func DecodeBinaryBlob(src *cursor.Reader) (*BinaryBlob, error) {
	const name = "LicensingBinaryBlob"
	if err := pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return nil, err
	}
	b := &BinaryBlob{}
	b.BlobType = src.ReadU16LE()
	length := src.ReadU16LE()
	if length == 0 {
		return b, nil
	}
	data, err := src.TryReadSlice(int(length))
	if err != nil {
		return nil, err
	}
	b.Data = data
	return b, nil
}

// ErrorMessage is LICENSE_ERROR_MESSAGE (MS-RDPELE 2.2.2.2), used both for
// the Valid Client shortcut and for genuine licensing failures.
type ErrorMessage struct {
	ErrorCode       uint32
	StateTransition uint32
	Info            BinaryBlob
}

func (m *ErrorMessage) Name() string { return "LicensingErrorMessage" }
func (m *ErrorMessage) Size() int    { return 4 + 4 + m.Info.Size() }

func (m *ErrorMessage) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(m.Name(), dst, m.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(m.ErrorCode)
	dst.WriteU32LE(m.StateTransition)
	return m.Info.Encode(dst)
}

func DecodeErrorMessage(src *cursor.Reader) (*ErrorMessage, error) {
	const name = "LicensingErrorMessage"
	if err := pdu.EnsureFixedPartSize(name, src, 8); err != nil {
		return nil, err
	}
	m := &ErrorMessage{}
	m.ErrorCode = src.ReadU32LE()
	m.StateTransition = src.ReadU32LE()
	info, err := DecodeBinaryBlob(src)
	if err != nil {
		return nil, err
	}
	m.Info = *info
	return m, nil
}

// ValidClientErrorAlert builds the preamble + body the server sends to
// skip the rest of the licensing exchange outright (MS-RDPBCGR 2.2.1.12).
func ValidClientErrorAlert() (*Preamble, *ErrorMessage) {
	body := &ErrorMessage{
		ErrorCode:       ErrorSuccess,
		StateTransition: StateNoTransition,
		Info:            BinaryBlob{BlobType: 0, Data: nil},
	}
	pre := &Preamble{
		MsgType: MsgTypeErrorAlert,
		Flags:   PreambleVersion3,
		MsgSize: uint16(4 + body.Size()),
	}
	return pre, body
}

// LicenseRequest is the server's LICENSE_REQUEST PDU, carrying the server
// random and certificate used for the key exchange when a full licensing
// round-trip is actually performed (MS-RDPELE 2.2.2.1).
type LicenseRequest struct {
	ServerRandom [32]byte
	Certificate  BinaryBlob
	ScopeList    []BinaryBlob
}

func (r *LicenseRequest) Name() string { return "LicenseRequest" }

func (r *LicenseRequest) Size() int {
	n := 32 + r.Certificate.Size() + 4
	for _, s := range r.ScopeList {
		n += s.Size()
	}
	return n
}

func (r *LicenseRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(r.Name(), dst, r.Size()); err != nil {
		return err
	}
	dst.WriteSlice(r.ServerRandom[:])
	if err := r.Certificate.Encode(dst); err != nil {
		return err
	}
	dst.WriteU32LE(uint32(len(r.ScopeList)))
	for _, s := range r.ScopeList {
		if err := s.Encode(dst); err != nil {
			return err
		}
	}
	return nil
}

func DecodeLicenseRequest(src *cursor.Reader) (*LicenseRequest, error) {
	const name = "LicenseRequest"
	if err := pdu.EnsureFixedPartSize(name, src, 32); err != nil {
		return nil, err
	}
	r := &LicenseRequest{}
	rand, err := src.TryReadSlice(32)
	if err != nil {
		return nil, err
	}
	copy(r.ServerRandom[:], rand)

	cert, err := DecodeBinaryBlob(src)
	if err != nil {
		return nil, err
	}
	r.Certificate = *cert

	if err := pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return nil, err
	}
	count := int(src.ReadU32LE())
	for i := 0; i < count; i++ {
		s, err := DecodeBinaryBlob(src)
		if err != nil {
			return nil, err
		}
		r.ScopeList = append(r.ScopeList, *s)
	}
	return r, nil
}
