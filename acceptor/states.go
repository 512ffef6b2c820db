package acceptor

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
	"github.com/rcarmo/go-rdp/protocol/caps"
	"github.com/rcarmo/go-rdp/protocol/gcc"
	"github.com/rcarmo/go-rdp/protocol/licensing"
	"github.com/rcarmo/go-rdp/protocol/mcs"
	"github.com/rcarmo/go-rdp/protocol/security"
	"github.com/rcarmo/go-rdp/protocol/share"
	"github.com/rcarmo/go-rdp/protocol/x224"
)

// handshake carries everything later acceptor states need that earlier
// states produced, mirroring connector's handshake struct.
type handshake struct {
	opts Options

	selectedProtocol x224.SecurityProtocol

	clientCore    *gcc.ClientCoreData
	channelNames  []string // static virtual channels the client requested, in order
	userChannelID uint16
	ioChannelID   uint16
	staticChanIDs map[string]uint16

	shareID uint32
}

// --- 1. ConnectionInitiationWaitRequest --------------------------------------

type connectionInitiationWaitRequest struct {
	opts Options
}

func (s *connectionInitiationWaitRequest) Name() string        { return "ConnectionInitiationWaitRequest" }
func (s *connectionInitiationWaitRequest) NextPDUHint() PDUHint { return tpktHint }

func (s *connectionInitiationWaitRequest) Step(input []byte) ([]byte, State, error) {
	req, err := x224.DecodeConnectionRequest(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	hs := &handshake{opts: s.opts}

	if !req.HasNegotiation {
		return nil, nil, &pdu.UnsupportedError{PDU: "X224ConnectionRequest", What: "pre-negotiation (RDP 4.0) clients are not supported"}
	}

	offered := req.RequestedProtocols & s.opts.SupportedProtocols
	confirm := &x224.ConnectionConfirm{Type: x224.NegotiationTypeResponse}
	switch {
	case offered&x224.ProtocolHybridEx != 0:
		confirm.SelectedProtocol = x224.ProtocolHybridEx
	case offered&x224.ProtocolHybrid != 0:
		confirm.SelectedProtocol = x224.ProtocolHybrid
	case offered&x224.ProtocolSSL != 0:
		confirm.SelectedProtocol = x224.ProtocolSSL
	default:
		confirm.Type = x224.NegotiationTypeFailure
		confirm.FailureCode = x224.FailureSSLRequiredByServer
	}

	out := make([]byte, confirm.Size())
	if err := confirm.Encode(cursor.NewWriter(out)); err != nil {
		return nil, nil, err
	}
	if confirm.Type == x224.NegotiationTypeFailure {
		return out, nil, &pdu.UnsupportedError{PDU: "X224ConnectionRequest", What: "client did not offer a supported security protocol"}
	}
	hs.selectedProtocol = confirm.SelectedProtocol
	return out, &enhancedSecurityUpgrade{hs: hs}, nil
}

// --- 2. EnhancedSecurityUpgrade -----------------------------------------------

// enhancedSecurityUpgrade mirrors connector's state of the same name: the
// caller performs the TLS/CredSSP upgrade on the underlying transport
// between this state and the next Step call.
type enhancedSecurityUpgrade struct {
	hs *handshake
}

func (s *enhancedSecurityUpgrade) Name() string        { return "EnhancedSecurityUpgrade" }
func (s *enhancedSecurityUpgrade) NextPDUHint() PDUHint { return nil }

func (s *enhancedSecurityUpgrade) Step(_ []byte) ([]byte, State, error) {
	return nil, &basicSettingsWaitInitial{hs: s.hs}, nil
}

// --- 3. BasicSettingsExchange: WaitInitial -------------------------------------

type basicSettingsWaitInitial struct {
	hs *handshake
}

func (s *basicSettingsWaitInitial) Name() string        { return "BasicSettingsWaitInitial" }
func (s *basicSettingsWaitInitial) NextPDUHint() PDUHint { return tpktHint }

func (s *basicSettingsWaitInitial) Step(input []byte) ([]byte, State, error) {
	mcsPayload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	ci, err := mcs.DecodeConnectInitial(cursor.NewReader(mcsPayload))
	if err != nil {
		return nil, nil, err
	}
	ccReq, err := gcc.DecodeConferenceCreateRequest(cursor.NewReader(ci.UserData))
	if err != nil {
		return nil, nil, err
	}
	blocks, err := gcc.DecodeClientDataBlocks(ccReq.UserData)
	if err != nil {
		return nil, nil, err
	}
	if blocks.Core == nil {
		return nil, nil, &pdu.InvalidMessageError{PDU: "GCCClientDataBlocks", Context: "core block", Reason: "client did not send CS_CORE"}
	}
	s.hs.clientCore = blocks.Core

	// Channels are attached only if this server is prepared to host them
	// (Options.Channels); any other requested name is simply not assigned an
	// id, matching a real server's refusal of unknown virtual channels.
	serverChannels := make(map[string]bool, len(s.hs.opts.Channels))
	for _, name := range s.hs.opts.Channels {
		serverChannels[name] = true
	}

	nextID := serverIOChannelID + 1
	s.hs.staticChanIDs = make(map[string]uint16)
	if blocks.Network != nil {
		for _, ch := range blocks.Network.Channels {
			s.hs.channelNames = append(s.hs.channelNames, ch.Name)
			if serverChannels[ch.Name] {
				s.hs.staticChanIDs[ch.Name] = nextID
				nextID++
			}
		}
	}
	s.hs.ioChannelID = serverIOChannelID

	return nil, &basicSettingsSendResponse{hs: s.hs}, nil
}

// --- 3b. BasicSettingsExchange: SendResponse -----------------------------------

type basicSettingsSendResponse struct {
	hs *handshake
}

func (s *basicSettingsSendResponse) Name() string        { return "BasicSettingsSendResponse" }
func (s *basicSettingsSendResponse) NextPDUHint() PDUHint { return nil }

func (s *basicSettingsSendResponse) Step(_ []byte) ([]byte, State, error) {
	core := &gcc.ServerCoreData{
		Version:                 0x00080004,
		ClientRequestedProtocol: uint32(s.hs.selectedProtocol),
	}
	sec := &gcc.ServerSecurityData{EncryptionMethod: 0, EncryptionLevel: 0}

	channelIDs := make([]uint16, len(s.hs.channelNames))
	for i, name := range s.hs.channelNames {
		channelIDs[i] = s.hs.staticChanIDs[name] // zero for any channel this server refused
	}
	network := &gcc.ServerNetworkData{IOChannelID: s.hs.ioChannelID, ChannelIDs: channelIDs}

	userData := make([]byte, core.Size()+sec.Size()+network.Size())
	w := cursor.NewWriter(userData)
	if err := core.Encode(w); err != nil {
		return nil, nil, err
	}
	if err := sec.Encode(w); err != nil {
		return nil, nil, err
	}
	if err := network.Encode(w); err != nil {
		return nil, nil, err
	}

	ccResp := &gcc.ConferenceCreateResponse{UserData: w.Filled()}
	gccBuf := make([]byte, ccResp.Size())
	if err := ccResp.Encode(cursor.NewWriter(gccBuf)); err != nil {
		return nil, nil, err
	}

	params := mcs.DomainParameters{
		MaxChannelIDs: 34, MaxUserIDs: 3, MaxTokenIDs: 0,
		NumPriorities: 1, MinThroughput: 0, MaxHeight: 1,
		MaxMCSPDUSize: 65535, ProtocolVersion: 2,
	}
	resp := &mcs.ConnectResponse{Result: 0, CalledConnectID: 0, Parameters: params, UserData: gccBuf}
	mcsBuf := make([]byte, resp.Size())
	if err := resp.Encode(cursor.NewWriter(mcsBuf)); err != nil {
		return nil, nil, err
	}

	out := x224.WrapData(mcsBuf)
	return out, &channelConnection{hs: s.hs, phase: channelWaitErect}, nil
}

// --- 4. ChannelConnection -------------------------------------------------------

type channelConnectionPhase int

const (
	channelWaitErect channelConnectionPhase = iota
	channelWaitAttach
	channelSendAttachConfirm
	channelWaitJoin
)

// channelConnection mirrors connector's state of the same name from the
// server's side of the same MS-RDPBCGR 1.3.1.1 sequence: it waits for
// Erect-Domain and Attach-User, then answers one Channel-Join-Request per
// channel the client asked to join (I/O channel, its own user channel, and
// every static virtual channel), in the order the client sends them.
type channelConnection struct {
	hs    *handshake
	phase channelConnectionPhase

	expectedJoins int
	joinsSeen     int
}

func (s *channelConnection) Name() string { return "ChannelConnection" }

func (s *channelConnection) NextPDUHint() PDUHint {
	switch s.phase {
	case channelWaitErect, channelWaitAttach, channelWaitJoin:
		return tpktHint
	default:
		return nil
	}
}

func (s *channelConnection) Step(input []byte) ([]byte, State, error) {
	switch s.phase {
	case channelWaitErect:
		payload, err := x224.UnwrapData(cursor.NewReader(input))
		if err != nil {
			return nil, nil, err
		}
		if _, err := mcs.DecodeErectDomainRequest(cursor.NewReader(payload)); err != nil {
			return nil, nil, err
		}
		s.phase = channelWaitAttach
		return nil, s, nil

	case channelWaitAttach:
		payload, err := x224.UnwrapData(cursor.NewReader(input))
		if err != nil {
			return nil, nil, err
		}
		if _, err := mcs.DecodeAttachUserRequest(cursor.NewReader(payload)); err != nil {
			return nil, nil, err
		}
		s.hs.userChannelID = serverUserChannelID
		s.phase = channelSendAttachConfirm
		return nil, s, nil

	case channelSendAttachConfirm:
		confirm := &mcs.AttachUserConfirm{Result: 0, InitiatorID: s.hs.userChannelID}
		buf := make([]byte, confirm.Size())
		if err := confirm.Encode(cursor.NewWriter(buf)); err != nil {
			return nil, nil, err
		}
		// One join round trip per: I/O channel, the user's own channel, and
		// every static virtual channel assigned an id.
		s.expectedJoins = 2 + len(s.hs.staticChanIDs)
		s.phase = channelWaitJoin
		return x224.WrapData(buf), s, nil

	case channelWaitJoin:
		payload, err := x224.UnwrapData(cursor.NewReader(input))
		if err != nil {
			return nil, nil, err
		}
		req, err := mcs.DecodeChannelJoinRequest(cursor.NewReader(payload))
		if err != nil {
			return nil, nil, err
		}
		confirm := &mcs.ChannelJoinConfirm{Result: 0, InitiatorID: req.InitiatorID, Requested: req.ChannelID, ChannelID: req.ChannelID}
		buf := make([]byte, confirm.Size())
		if err := confirm.Encode(cursor.NewWriter(buf)); err != nil {
			return nil, nil, err
		}
		s.joinsSeen++
		out := x224.WrapData(buf)
		if s.joinsSeen < s.expectedJoins {
			return out, s, nil
		}
		return out, &secureSettingsExchange{hs: s.hs}, nil
	}
	return nil, nil, &pdu.InvalidMessageError{PDU: "ChannelConnection", Context: "step", Reason: "unreachable phase"}
}

// --- 5. SecureSettingsExchange ---------------------------------------------------

type secureSettingsExchange struct {
	hs *handshake
}

func (s *secureSettingsExchange) Name() string        { return "SecureSettingsExchange" }
func (s *secureSettingsExchange) NextPDUHint() PDUHint { return tpktHint }

func (s *secureSettingsExchange) Step(input []byte) ([]byte, State, error) {
	payload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	sdr, err := mcs.DecodeSendDataRequest(cursor.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	r := cursor.NewReader(sdr.Payload)
	hdr, err := security.DecodeBasicHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if hdr.Flags&security.FlagInfoPKT == 0 {
		return nil, nil, &pdu.UnexpectedMagicError{PDU: "SecurityBasicHeader", Field: "flags", Got: uint64(hdr.Flags), Expected: uint64(security.FlagInfoPKT)}
	}
	if _, err := security.DecodeClientInfo(r, true); err != nil {
		return nil, nil, err
	}
	return nil, &licensingExchange{hs: s.hs}, nil
}

// --- 6. LicensingExchange ----------------------------------------------------------

// licensingExchange emits the Valid-Client-Error-Alert shortcut: the
// simplest legal reply a server can make without driving a real license
// server (the reference this module's teacher follows never issues one
// either).
type licensingExchange struct {
	hs *handshake
}

func (s *licensingExchange) Name() string        { return "LicensingExchange" }
func (s *licensingExchange) NextPDUHint() PDUHint { return nil }

func (s *licensingExchange) Step(_ []byte) ([]byte, State, error) {
	pre, alert := licensing.ValidClientErrorAlert()
	buf := make([]byte, pre.Size()+alert.Size())
	w := cursor.NewWriter(buf)
	if err := pre.Encode(w); err != nil {
		return nil, nil, err
	}
	if err := alert.Encode(w); err != nil {
		return nil, nil, err
	}

	hdr := &security.BasicHeader{Flags: security.FlagLicensePKT}
	payload := make([]byte, hdr.Size()+len(buf))
	pw := cursor.NewWriter(payload)
	if err := hdr.Encode(pw); err != nil {
		return nil, nil, err
	}
	pw.WriteSlice(buf)

	sdi := &mcs.SendDataIndication{InitiatorID: s.hs.userChannelID, ChannelID: s.hs.ioChannelID, Payload: pw.Filled()}
	sdiBuf := make([]byte, sdi.Size())
	if err := sdi.Encode(cursor.NewWriter(sdiBuf)); err != nil {
		return nil, nil, err
	}

	return x224.WrapData(sdiBuf), &capabilitiesExchangeSendDemand{hs: s.hs}, nil
}

// --- 7. CapabilitiesExchange: SendDemand --------------------------------------------

type capabilitiesExchangeSendDemand struct {
	hs *handshake
}

func (s *capabilitiesExchangeSendDemand) Name() string        { return "CapabilitiesExchangeSendDemand" }
func (s *capabilitiesExchangeSendDemand) NextPDUHint() PDUHint { return nil }

func (s *capabilitiesExchangeSendDemand) Step(_ []byte) ([]byte, State, error) {
	s.hs.shareID = 0x00010000 | uint32(s.hs.userChannelID)
	demand := &share.DemandActive{
		ShareID:          s.hs.shareID,
		SourceDescriptor: s.hs.opts.SourceDescriptor,
		Capabilities:     s.hs.opts.Capabilities,
		SessionID:        1,
	}
	body := make([]byte, demand.Size())
	if err := demand.Encode(cursor.NewWriter(body)); err != nil {
		return nil, nil, err
	}
	ctl := share.ControlHeader{Type: share.ControlDemandActive, PDUSource: s.hs.ioChannelID}
	ctl.TotalLength = uint16(ctl.Size() + demand.Size())
	out, err := wrapSlowPath(s.hs, ctl, body)
	if err != nil {
		return nil, nil, err
	}
	return out, &capabilitiesExchangeWaitConfirm{hs: s.hs}, nil
}

// --- 7b. CapabilitiesExchange: WaitConfirm ------------------------------------------

type capabilitiesExchangeWaitConfirm struct {
	hs *handshake
}

func (s *capabilitiesExchangeWaitConfirm) Name() string        { return "CapabilitiesExchangeWaitConfirm" }
func (s *capabilitiesExchangeWaitConfirm) NextPDUHint() PDUHint { return tpktHint }

func (s *capabilitiesExchangeWaitConfirm) Step(input []byte) ([]byte, State, error) {
	payload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	sdr, err := mcs.DecodeSendDataRequest(cursor.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	r := cursor.NewReader(sdr.Payload)
	if _, err := security.DecodeBasicHeader(r); err != nil {
		return nil, nil, err
	}
	ctl, err := share.DecodeControlHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if ctl.Type != share.ControlConfirmActive {
		return nil, nil, &pdu.UnexpectedMagicError{PDU: "ShareControlHeader", Field: "pduType", Got: uint64(ctl.Type), Expected: uint64(share.ControlConfirmActive)}
	}
	confirm, err := share.DecodeConfirmActive(r)
	if err != nil {
		return nil, nil, err
	}

	next := State(&connectionFinalization{hs: s.hs, clientCaps: confirm.Capabilities, phase: finalizeWaitSynchronize})
	if s.hs.clientCore != nil && s.hs.clientCore.EarlyCapabilityFlags&gcc.EarlyCapSupportMonitorLayoutPDU != 0 && len(s.hs.opts.Monitors) > 0 {
		next = &monitorLayoutSend{hs: s.hs, clientCaps: confirm.Capabilities}
	}
	return nil, next, nil
}

// --- 7c. MonitorLayoutSend (optional) -------------------------------------------------

// monitorLayoutSend emits the Share Data Monitor Layout PDU (MS-RDPBCGR
// 2.2.12.1) when the client has advertised support for it; this is a
// separate destructive state so skipping it never leaves a dangling phase
// field on connectionFinalization.
type monitorLayoutSend struct {
	hs         *handshake
	clientCaps caps.List
}

func (s *monitorLayoutSend) Name() string        { return "MonitorLayoutSend" }
func (s *monitorLayoutSend) NextPDUHint() PDUHint { return nil }

func (s *monitorLayoutSend) Step(_ []byte) ([]byte, State, error) {
	layout := &share.MonitorLayout{Monitors: s.hs.opts.Monitors}
	body := make([]byte, layout.Size())
	if err := layout.Encode(cursor.NewWriter(body)); err != nil {
		return nil, nil, err
	}
	ctl, data := dataHeaderCtl(s.hs, share.DataMonitorLayout, len(body))
	buf := make([]byte, data.Size()+len(body))
	w := cursor.NewWriter(buf)
	if err := data.Encode(w); err != nil {
		return nil, nil, err
	}
	w.WriteSlice(body)
	out, err := wrapSlowPath(s.hs, ctl, buf)
	if err != nil {
		return nil, nil, err
	}
	return out, &connectionFinalization{hs: s.hs, clientCaps: s.clientCaps, phase: finalizeWaitSynchronize}, nil
}

// wrapSlowPath frames a Share Control Header + body behind a Security Basic
// Header and an MCS Send Data Indication (the server->client direction of
// the same envelope connector's wrapSlowPath builds for client->server).
func wrapSlowPath(hs *handshake, ctl share.ControlHeader, body []byte) ([]byte, error) {
	shareBuf := make([]byte, ctl.Size()+len(body))
	w := cursor.NewWriter(shareBuf)
	if err := ctl.Encode(w); err != nil {
		return nil, err
	}
	w.WriteSlice(body)

	secHdr := &security.BasicHeader{}
	payload := make([]byte, secHdr.Size()+len(shareBuf))
	pw := cursor.NewWriter(payload)
	if err := secHdr.Encode(pw); err != nil {
		return nil, err
	}
	pw.WriteSlice(shareBuf)

	sdi := &mcs.SendDataIndication{InitiatorID: hs.userChannelID, ChannelID: hs.ioChannelID, Payload: pw.Filled()}
	sdiBuf := make([]byte, sdi.Size())
	if err := sdi.Encode(cursor.NewWriter(sdiBuf)); err != nil {
		return nil, err
	}
	return x224.WrapData(sdiBuf), nil
}

func dataHeaderCtl(hs *handshake, dt share.DataType, bodyLen int) (share.ControlHeader, share.DataHeader) {
	data := share.DataHeader{ShareID: hs.shareID, Type: dt, CompressedType: share.CompressionNone}
	data.UncompressedLength = uint16(data.Size() + bodyLen)
	ctl := share.ControlHeader{Type: share.ControlData, PDUSource: hs.ioChannelID}
	ctl.TotalLength = uint16(ctl.Size() + data.Size() + bodyLen)
	return ctl, data
}

// --- 8. ConnectionFinalization --------------------------------------------------------

type finalizationPhase int

const (
	finalizeWaitSynchronize finalizationPhase = iota
	finalizeWaitCooperate
	finalizeWaitRequestControl
	finalizeSendSynchronize
	finalizeSendGrantedControl
	finalizeWaitFontList
	finalizeSendFontMap
)

// connectionFinalization is the server's mirror of connector's state of the
// same name: the client drives Synchronize/Cooperate/Request-Control first,
// the server answers Synchronize + Granted-Control, then the client's Font
// List is answered with a Font Map. Any slow-path input PDU the client
// sends while this state waits for input (a real client never does, but a
// malformed or eager one might) is accumulated rather than rejected and
// surfaced in Result.PendingInputs.
type connectionFinalization struct {
	hs         *handshake
	clientCaps caps.List
	phase      finalizationPhase

	pending []InputEvent
}

func (s *connectionFinalization) Name() string { return "ConnectionFinalization" }

func (s *connectionFinalization) NextPDUHint() PDUHint {
	switch s.phase {
	case finalizeWaitSynchronize, finalizeWaitCooperate, finalizeWaitRequestControl, finalizeWaitFontList:
		return tpktHint
	default:
		return nil
	}
}

func (s *connectionFinalization) expectDataPDU(input []byte, want share.DataType) error {
	payload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return err
	}
	sdr, err := mcs.DecodeSendDataRequest(cursor.NewReader(payload))
	if err != nil {
		return err
	}
	r := cursor.NewReader(sdr.Payload)
	if _, err := security.DecodeBasicHeader(r); err != nil {
		return err
	}
	ctl, err := share.DecodeControlHeader(r)
	if err != nil {
		return err
	}
	if ctl.Type != share.ControlData {
		return &pdu.UnexpectedMagicError{PDU: "ShareControlHeader", Field: "pduType", Got: uint64(ctl.Type), Expected: uint64(share.ControlData)}
	}
	data, err := share.DecodeDataHeader(r)
	if err != nil {
		return err
	}
	if data.Type != want {
		return &pdu.UnexpectedMagicError{PDU: "ShareDataHeader", Field: "pduType2", Got: uint64(data.Type), Expected: uint64(want)}
	}
	return nil
}

func (s *connectionFinalization) sendDataPDU(dt share.DataType, body []byte) ([]byte, error) {
	ctl, data := dataHeaderCtl(s.hs, dt, len(body))
	buf := make([]byte, data.Size()+len(body))
	w := cursor.NewWriter(buf)
	if err := data.Encode(w); err != nil {
		return nil, err
	}
	w.WriteSlice(body)
	return wrapSlowPath(s.hs, ctl, buf)
}

func (s *connectionFinalization) Step(input []byte) ([]byte, State, error) {
	if s.NextPDUHint() != nil && s.expectDataPDU(input, share.DataInput) == nil {
		s.pending = append(s.pending, InputEvent{Raw: append([]byte(nil), input...)})
		return nil, s, nil
	}
	switch s.phase {
	case finalizeWaitSynchronize:
		if err := s.expectDataPDU(input, share.DataSynchronize); err != nil {
			return nil, nil, err
		}
		s.phase = finalizeWaitCooperate
		return nil, s, nil

	case finalizeWaitCooperate:
		if err := s.expectDataPDU(input, share.DataControl); err != nil {
			return nil, nil, err
		}
		s.phase = finalizeWaitRequestControl
		return nil, s, nil

	case finalizeWaitRequestControl:
		if err := s.expectDataPDU(input, share.DataControl); err != nil {
			return nil, nil, err
		}
		s.phase = finalizeSendSynchronize
		return nil, s, nil

	case finalizeSendSynchronize:
		sync := &share.Synchronize{TargetUser: s.hs.userChannelID}
		body := make([]byte, sync.Size())
		if err := sync.Encode(cursor.NewWriter(body)); err != nil {
			return nil, nil, err
		}
		out, err := s.sendDataPDU(share.DataSynchronize, body)
		if err != nil {
			return nil, nil, err
		}
		s.phase = finalizeSendGrantedControl
		return out, s, nil

	case finalizeSendGrantedControl:
		ctl := &share.Control{Action: share.ActionGrantedControl, GrantID: s.hs.userChannelID, ControlID: uint32(serverUserChannelID)}
		body := make([]byte, ctl.Size())
		if err := ctl.Encode(cursor.NewWriter(body)); err != nil {
			return nil, nil, err
		}
		out, err := s.sendDataPDU(share.DataControl, body)
		if err != nil {
			return nil, nil, err
		}
		s.phase = finalizeWaitFontList
		return out, s, nil

	case finalizeWaitFontList:
		if err := s.expectDataPDU(input, share.DataFontList); err != nil {
			return nil, nil, err
		}
		s.phase = finalizeSendFontMap
		return nil, s, nil

	case finalizeSendFontMap:
		fm := &share.FontMap{}
		body := make([]byte, fm.Size())
		if err := fm.Encode(cursor.NewWriter(body)); err != nil {
			return nil, nil, err
		}
		out, err := s.sendDataPDU(share.DataFontMap, body)
		if err != nil {
			return nil, nil, err
		}
		result := Result{
			UserChannelID: s.hs.userChannelID,
			IOChannelID:   s.hs.ioChannelID,
			ChannelIDs:    s.hs.staticChanIDs,
			ClientCaps:    s.clientCaps,
			DesktopWidth:  desktopWidth(s.hs),
			DesktopHeight: desktopHeight(s.hs),
			PendingInputs: s.pending,
		}
		return out, &accepted{result: result}, nil
	}
	return nil, nil, &pdu.InvalidMessageError{PDU: "ConnectionFinalization", Context: "step", Reason: "unreachable phase"}
}

func desktopWidth(hs *handshake) uint16 {
	if hs.clientCore == nil {
		return 0
	}
	return hs.clientCore.DesktopWidth
}

func desktopHeight(hs *handshake) uint16 {
	if hs.clientCore == nil {
		return 0
	}
	return hs.clientCore.DesktopHeight
}

// --- 9. Accepted -----------------------------------------------------------------------

type accepted struct {
	result Result
}

func (a *accepted) Name() string        { return "Accepted" }
func (a *accepted) NextPDUHint() PDUHint { return nil }
func (a *accepted) Step(_ []byte) ([]byte, State, error) {
	return nil, nil, ErrConsumed
}
