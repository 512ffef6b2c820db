package connector

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

// ioChannelName is the key used to address the I/O channel in
// Result.ChannelIDs; it is not a real static virtual channel so it never
// appears in Options.Channels.
const ioChannelName = "<io-channel>"

// handshake carries everything later states need that earlier states
// produced: the accepted protocol, the channel bindings, and so on. Every
// concrete state embeds a pointer to the same handshake so state data
// survives the Step-by-step destructive walk.
type handshake struct {
	opts Options

	selectedProtocol x224.SecurityProtocol

	serverCore     *gcc.ServerCoreData
	serverNetwork  *gcc.ServerNetworkData
	channelNames   []string // static virtual channel names in request order
	userChannelID  uint16
	ioChannelID    uint16
	staticChanIDs  map[string]uint16

	shareID uint32
}

// --- 1. ConnectionInitiationSendRequest ------------------------------------

type connectionInitiationSendRequest struct {
	opts Options
}

func (s *connectionInitiationSendRequest) Name() string      { return "ConnectionInitiationSendRequest" }
func (s *connectionInitiationSendRequest) NextPDUHint() PDUHint { return nil }

func (s *connectionInitiationSendRequest) Step(_ []byte) ([]byte, State, error) {
	req := &x224.ConnectionRequest{
		HasNegotiation:     true,
		RequestedProtocols: s.opts.RequestedProtocols,
	}
	out := make([]byte, req.Size())
	if err := req.Encode(cursor.NewWriter(out)); err != nil {
		return nil, nil, err
	}
	hs := &handshake{opts: s.opts}
	return out, &connectionInitiationWaitConfirm{hs: hs}, nil
}

// --- 2. ConnectionInitiationWaitConfirm ------------------------------------

type connectionInitiationWaitConfirm struct {
	hs *handshake
}

func (s *connectionInitiationWaitConfirm) Name() string        { return "ConnectionInitiationWaitConfirm" }
func (s *connectionInitiationWaitConfirm) NextPDUHint() PDUHint { return tpktHint }

func (s *connectionInitiationWaitConfirm) Step(input []byte) ([]byte, State, error) {
	confirm, err := x224.DecodeConnectionConfirm(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	if confirm.Type == x224.NegotiationTypeFailure {
		return nil, nil, &pdu.InvalidFieldError{PDU: "X224ConnectionConfirm", Field: "failureCode", Reason: "server rejected the requested security protocols"}
	}
	s.hs.selectedProtocol = confirm.SelectedProtocol
	if s.hs.selectedProtocol == x224.ProtocolRDP {
		return nil, nil, &pdu.UnsupportedError{PDU: "ConnectionConfirm", What: "standard RDP security (no TLS/CredSSP) is not implemented"}
	}
	return nil, &enhancedSecurityUpgrade{hs: s.hs}, nil
}

// --- 3. EnhancedSecurityUpgrade ---------------------------------------------

// enhancedSecurityUpgrade is a no-op transition from the protocol's point of
// view: it marks the point at which the caller driving the Connector must
// perform the TLS (or CredSSP, for Hybrid/HybridEx) handshake on the
// underlying transport before feeding any more bytes in. Once that upgrade
// completes, the caller calls Step(nil) to move on.
type enhancedSecurityUpgrade struct {
	hs *handshake
}

func (s *enhancedSecurityUpgrade) Name() string        { return "EnhancedSecurityUpgrade" }
func (s *enhancedSecurityUpgrade) NextPDUHint() PDUHint { return nil }

func (s *enhancedSecurityUpgrade) Step(_ []byte) ([]byte, State, error) {
	return nil, &basicSettingsExchangeSendInitial{hs: s.hs}, nil
}

// --- 4. BasicSettingsExchange: SendInitial ----------------------------------

type basicSettingsExchangeSendInitial struct {
	hs *handshake
}

func (s *basicSettingsExchangeSendInitial) Name() string        { return "BasicSettingsExchangeSendInitial" }
func (s *basicSettingsExchangeSendInitial) NextPDUHint() PDUHint { return nil }

func (s *basicSettingsExchangeSendInitial) Step(_ []byte) ([]byte, State, error) {
	opts := s.hs.opts

	channels := make([]gcc.ChannelDef, len(opts.Channels))
	copy(channels, opts.Channels)
	for _, c := range channels {
		s.hs.channelNames = append(s.hs.channelNames, c.Name)
	}

	core := &gcc.ClientCoreData{
		Version:              0x00080004,
		DesktopWidth:          opts.DesktopWidth,
		DesktopHeight:         opts.DesktopHeight,
		ColorDepth:            0xCA01, // RNS_UD_COLOR_8BPP sentinel; HighColorDepth carries the real depth
		SASSequence:           0xAA03,
		KeyboardLayout:        0x409,
		ClientBuild:           2600,
		ClientName:            opts.ClientName,
		KeyboardType:          4,
		HighColorDepth:        opts.ColorDepth,
		SupportedColorDepths:  0x0007, // 24/16/15 bpp
		EarlyCapabilityFlags:  0x0001, // SUPPORT_ERRINFO_PDU
		ServerSelectedProtocol: uint32(opts.RequestedProtocols),
	}
	secData := &gcc.ClientSecurityData{EncryptionMethods: 0, ExtEncryptionMethods: 0}
	network := &gcc.ClientNetworkData{Channels: channels}

	userData := make([]byte, core.Size()+secData.Size()+network.Size())
	w := cursor.NewWriter(userData)
	if err := core.Encode(w); err != nil {
		return nil, nil, err
	}
	if err := secData.Encode(w); err != nil {
		return nil, nil, err
	}
	if len(channels) > 0 {
		if err := network.Encode(w); err != nil {
			return nil, nil, err
		}
	}

	ccReq := &gcc.ConferenceCreateRequest{UserData: w.Filled()}
	gccBuf := make([]byte, ccReq.Size())
	if err := ccReq.Encode(cursor.NewWriter(gccBuf)); err != nil {
		return nil, nil, err
	}

	params := mcs.DomainParameters{
		MaxChannelIDs: 34, MaxUserIDs: 3, MaxTokenIDs: 0,
		NumPriorities: 1, MinThroughput: 0, MaxHeight: 1,
		MaxMCSPDUSize: 65535, ProtocolVersion: 2,
	}
	ci := &mcs.ConnectInitial{
		CallingDomainSelector: []byte{0x01},
		CalledDomainSelector:  []byte{0x01},
		UpwardFlag:            true,
		TargetParameters:      params,
		MinimumParameters:     params,
		MaximumParameters:     params,
		UserData:              gccBuf,
	}
	mcsBuf := make([]byte, ci.Size())
	if err := ci.Encode(cursor.NewWriter(mcsBuf)); err != nil {
		return nil, nil, err
	}

	out := x224.WrapData(mcsBuf)
	return out, &basicSettingsExchangeWaitResponse{hs: s.hs}, nil
}

// --- 4b. BasicSettingsExchange: WaitResponse --------------------------------

type basicSettingsExchangeWaitResponse struct {
	hs *handshake
}

func (s *basicSettingsExchangeWaitResponse) Name() string        { return "BasicSettingsExchangeWaitResponse" }
func (s *basicSettingsExchangeWaitResponse) NextPDUHint() PDUHint { return tpktHint }

func (s *basicSettingsExchangeWaitResponse) Step(input []byte) ([]byte, State, error) {
	mcsPayload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	resp, err := mcs.DecodeConnectResponse(cursor.NewReader(mcsPayload))
	if err != nil {
		return nil, nil, err
	}
	ccResp, err := gcc.DecodeConferenceCreateResponse(cursor.NewReader(resp.UserData))
	if err != nil {
		return nil, nil, err
	}
	blocks, err := gcc.DecodeServerDataBlocks(ccResp.UserData)
	if err != nil {
		return nil, nil, err
	}
	if blocks.Network == nil {
		return nil, nil, &pdu.InvalidMessageError{PDU: "GCCServerDataBlocks", Context: "network block", Reason: "server did not return channel assignments"}
	}
	s.hs.serverCore = blocks.Core
	s.hs.serverNetwork = blocks.Network
	s.hs.ioChannelID = blocks.Network.IOChannelID

	s.hs.staticChanIDs = make(map[string]uint16, len(s.hs.channelNames))
	for i, name := range s.hs.channelNames {
		if i < len(blocks.Network.ChannelIDs) {
			s.hs.staticChanIDs[name] = blocks.Network.ChannelIDs[i]
		}
	}

	return nil, &channelConnection{hs: s.hs, phase: channelErect}, nil
}

// --- 5. ChannelConnection ----------------------------------------------------

// channelConnectionPhase walks Erect-Domain -> Attach-User (send+wait) ->
// one Channel-Join-Request/Confirm round trip per channel (I/O channel
// first, then the user channel, then every static virtual channel), matching the MS-RDPBCGR 1.3.1.1
// connection sequence.
type channelConnectionPhase int

const (
	channelErect channelConnectionPhase = iota
	channelAttachSend
	channelAttachWait
	channelJoinSend
	channelJoinWait
)

type channelConnection struct {
	hs    *handshake
	phase channelConnectionPhase

	// joinTargets is built once, lazily, the first time joinSend runs: the
	// I/O channel followed by every static virtual channel, in request
	// order, so Channel-Join-Confirm replies can be matched positionally.
	joinTargets []uint16
	joinNames   []string
	joinIndex   int
}

func (s *channelConnection) Name() string { return "ChannelConnection" }

func (s *channelConnection) NextPDUHint() PDUHint {
	switch s.phase {
	case channelAttachWait, channelJoinWait:
		return tpktHint
	default:
		return nil
	}
}

func (s *channelConnection) Step(input []byte) ([]byte, State, error) {
	switch s.phase {
	case channelErect:
		erect := &mcs.ErectDomainRequest{SubHeight: 0, SubInterval: 0}
		buf := make([]byte, erect.Size())
		if err := erect.Encode(cursor.NewWriter(buf)); err != nil {
			return nil, nil, err
		}
		s.phase = channelAttachSend
		return x224.WrapData(buf), s, nil

	case channelAttachSend:
		auReq := &mcs.AttachUserRequest{}
		buf := make([]byte, auReq.Size())
		if err := auReq.Encode(cursor.NewWriter(buf)); err != nil {
			return nil, nil, err
		}
		s.phase = channelAttachWait
		return x224.WrapData(buf), s, nil

	case channelAttachWait:
		payload, err := x224.UnwrapData(cursor.NewReader(input))
		if err != nil {
			return nil, nil, err
		}
		confirm, err := mcs.DecodeAttachUserConfirm(cursor.NewReader(payload))
		if err != nil {
			return nil, nil, err
		}
		s.hs.userChannelID = confirm.InitiatorID

		s.joinTargets = append(s.joinTargets, s.hs.ioChannelID)
		s.joinNames = append(s.joinNames, ioChannelName)
		s.joinTargets = append(s.joinTargets, s.hs.userChannelID)
		s.joinNames = append(s.joinNames, "<user-channel>")
		for _, name := range s.hs.channelNames {
			if id, ok := s.hs.staticChanIDs[name]; ok {
				s.joinTargets = append(s.joinTargets, id)
				s.joinNames = append(s.joinNames, name)
			}
		}
		s.phase = channelJoinSend
		return nil, s, nil

	case channelJoinSend:
		req := &mcs.ChannelJoinRequest{InitiatorID: s.hs.userChannelID, ChannelID: s.joinTargets[s.joinIndex]}
		buf := make([]byte, req.Size())
		if err := req.Encode(cursor.NewWriter(buf)); err != nil {
			return nil, nil, err
		}
		s.phase = channelJoinWait
		return x224.WrapData(buf), s, nil

	case channelJoinWait:
		payload, err := x224.UnwrapData(cursor.NewReader(input))
		if err != nil {
			return nil, nil, err
		}
		confirm, err := mcs.DecodeChannelJoinConfirm(cursor.NewReader(payload))
		if err != nil {
			return nil, nil, err
		}
		if confirm.ChannelID != s.joinTargets[s.joinIndex] {
			return nil, nil, &pdu.CrossFieldMismatchError{PDU: "MCSChannelJoinConfirm", Fields: []string{"channelId"}, Reason: "confirm does not match the channel just requested"}
		}
		s.joinIndex++
		if s.joinIndex < len(s.joinTargets) {
			s.phase = channelJoinSend
			return nil, s, nil
		}
		return nil, &secureSettingsExchange{hs: s.hs}, nil
	}
	return nil, nil, &pdu.InvalidMessageError{PDU: "ChannelConnection", Context: "step", Reason: "unreachable phase"}
}

// --- 6. SecureSettingsExchange ----------------------------------------------

type secureSettingsExchange struct {
	hs *handshake
}

func (s *secureSettingsExchange) Name() string        { return "SecureSettingsExchange" }
func (s *secureSettingsExchange) NextPDUHint() PDUHint { return nil }

func (s *secureSettingsExchange) Step(_ []byte) ([]byte, State, error) {
	opts := s.hs.opts
	flags := security.InfoMouse | security.InfoUnicode | security.InfoMaximizeShell | security.InfoLogonNotify | security.InfoEnableWindowsKey

	info := &security.ClientInfo{
		CodePage:       0,
		Flags:          flags,
		Domain:         opts.Domain,
		UserName:       opts.Username,
		Password:       opts.Password,
		AlternateShell: "",
		WorkingDir:     "",
		Extended: &security.ExtendedInfo{
			ClientAddress: "",
			ClientDir:     "C:\\Windows\\System32\\mstscax.dll",
			PerformanceFlags: 0,
		},
	}
	infoBuf := make([]byte, info.Size())
	if err := info.Encode(cursor.NewWriter(infoBuf)); err != nil {
		return nil, nil, err
	}

	hdr := &security.BasicHeader{Flags: security.FlagInfoPKT}
	payload := make([]byte, hdr.Size()+len(infoBuf))
	w := cursor.NewWriter(payload)
	if err := hdr.Encode(w); err != nil {
		return nil, nil, err
	}
	w.WriteSlice(infoBuf)

	sdr := &mcs.SendDataRequest{InitiatorID: s.hs.userChannelID, ChannelID: s.hs.ioChannelID, Payload: w.Filled()}
	sdrBuf := make([]byte, sdr.Size())
	if err := sdr.Encode(cursor.NewWriter(sdrBuf)); err != nil {
		return nil, nil, err
	}

	return x224.WrapData(sdrBuf), &licensingExchange{hs: s.hs}, nil
}

// --- 7. LicensingExchange -----------------------------------------------------

type licensingExchange struct {
	hs *handshake
}

func (s *licensingExchange) Name() string        { return "LicensingExchange" }
func (s *licensingExchange) NextPDUHint() PDUHint { return tpktHint }

func (s *licensingExchange) Step(input []byte) ([]byte, State, error) {
	payload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	sdi, err := mcs.DecodeSendDataIndication(cursor.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	r := cursor.NewReader(sdi.Payload)
	if _, err := security.DecodeBasicHeader(r); err != nil {
		return nil, nil, err
	}
	pre, err := licensing.DecodePreamble(r)
	if err != nil {
		return nil, nil, err
	}
	switch pre.MsgType {
	case licensing.MsgTypeErrorAlert:
		if _, err := licensing.DecodeErrorMessage(r); err != nil {
			return nil, nil, err
		}
	case licensing.MsgTypeNewLicense:
		// A real license was actually issued; this module never needed one
		// to reach an active session, so it is simply acknowledged by
		// moving on.
	default:
		return nil, nil, &pdu.UnsupportedError{PDU: "LicensingPreamble", What: "only the Valid Client Error Alert shortcut and New License messages are handled"}
	}
	return nil, &capabilitiesExchangeWaitDemand{hs: s.hs}, nil
}

// --- 8. CapabilitiesExchange: WaitDemand -------------------------------------

type capabilitiesExchangeWaitDemand struct {
	hs *handshake
}

func (s *capabilitiesExchangeWaitDemand) Name() string        { return "CapabilitiesExchangeWaitDemand" }
func (s *capabilitiesExchangeWaitDemand) NextPDUHint() PDUHint { return tpktHint }

func (s *capabilitiesExchangeWaitDemand) Step(input []byte) ([]byte, State, error) {
	payload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return nil, nil, err
	}
	sdi, err := mcs.DecodeSendDataIndication(cursor.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	r := cursor.NewReader(sdi.Payload)
	if _, err := security.DecodeBasicHeader(r); err != nil {
		return nil, nil, err
	}
	ctl, err := share.DecodeControlHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if ctl.Type != share.ControlDemandActive {
		return nil, nil, &pdu.UnexpectedMagicError{PDU: "ShareControlHeader", Field: "pduType", Got: uint64(ctl.Type), Expected: uint64(share.ControlDemandActive)}
	}
	demand, err := share.DecodeDemandActive(r)
	if err != nil {
		return nil, nil, err
	}
	s.hs.shareID = demand.ShareID
	return nil, &capabilitiesExchangeSendConfirm{hs: s.hs, serverCaps: demand.Capabilities}, nil
}

// --- 8b. CapabilitiesExchange: SendConfirm -----------------------------------

type capabilitiesExchangeSendConfirm struct {
	hs         *handshake
	serverCaps caps.List
}

func (s *capabilitiesExchangeSendConfirm) Name() string        { return "CapabilitiesExchangeSendConfirm" }
func (s *capabilitiesExchangeSendConfirm) NextPDUHint() PDUHint { return nil }

func (s *capabilitiesExchangeSendConfirm) Step(_ []byte) ([]byte, State, error) {
	confirm := &share.ConfirmActive{
		ShareID:          s.hs.shareID,
		OriginatorID:     0x03EA,
		SourceDescriptor: "rdp-proxy",
		Capabilities:     s.hs.opts.Capabilities,
	}
	confirmBuf := make([]byte, confirm.Size())
	if err := confirm.Encode(cursor.NewWriter(confirmBuf)); err != nil {
		return nil, nil, err
	}

	ctl := share.ControlHeader{
		TotalLength: uint16(share.ControlHeader{}.Size() + confirm.Size()),
		Type:        share.ControlConfirmActive,
		PDUSource:   s.hs.userChannelID,
	}
	out, err := wrapSlowPath(s.hs, ctl, confirmBuf)
	if err != nil {
		return nil, nil, err
	}
	return out, &connectionFinalization{hs: s.hs, serverCaps: s.serverCaps, phase: finalizeSendSynchronize}, nil
}

// wrapSlowPath frames a Share Control Header + body behind a Security Basic
// Header, an MCS Send Data Request, and the X.224/TPKT transport headers:
// the envelope every slow-path client->server PDU shares from capability
// exchange through finalization.
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

	sdr := &mcs.SendDataRequest{InitiatorID: hs.userChannelID, ChannelID: hs.ioChannelID, Payload: pw.Filled()}
	sdrBuf := make([]byte, sdr.Size())
	if err := sdr.Encode(cursor.NewWriter(sdrBuf)); err != nil {
		return nil, err
	}
	return x224.WrapData(sdrBuf), nil
}

// --- 9. ConnectionFinalization ------------------------------------------------

type finalizationPhase int

const (
	finalizeSendSynchronize finalizationPhase = iota
	finalizeSendCooperate
	finalizeSendRequestControl
	finalizeWaitServerSync
	finalizeWaitGrantedControl
	finalizeSendFontList
	finalizeWaitFontMap
)

// connectionFinalization runs the scripted PDU exchange MS-RDPBCGR 1.3.1.1
// calls "Connection Finalization": both sides ping-pong Synchronize and
// Control PDUs before the client sends its Font List and the server replies
// with a Font Map, after which the session is considered active.
type connectionFinalization struct {
	hs         *handshake
	serverCaps caps.List
	phase      finalizationPhase
}

func (s *connectionFinalization) Name() string { return "ConnectionFinalization" }

func (s *connectionFinalization) NextPDUHint() PDUHint {
	switch s.phase {
	case finalizeWaitServerSync, finalizeWaitGrantedControl, finalizeWaitFontMap:
		return tpktHint
	default:
		return nil
	}
}

func dataHeaderCtl(hs *handshake, dt share.DataType, bodyLen int) (share.ControlHeader, share.DataHeader) {
	data := share.DataHeader{ShareID: hs.shareID, Type: dt, CompressedType: share.CompressionNone}
	data.UncompressedLength = uint16(data.Size() + bodyLen)
	ctl := share.ControlHeader{
		Type:      share.ControlData,
		PDUSource: hs.userChannelID,
	}
	ctl.TotalLength = uint16(ctl.Size() + data.Size() + bodyLen)
	return ctl, data
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
	switch s.phase {
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
		s.phase = finalizeSendCooperate
		return out, s, nil

	case finalizeSendCooperate:
		ctl := &share.Control{Action: share.ActionCooperate}
		body := make([]byte, ctl.Size())
		if err := ctl.Encode(cursor.NewWriter(body)); err != nil {
			return nil, nil, err
		}
		out, err := s.sendDataPDU(share.DataControl, body)
		if err != nil {
			return nil, nil, err
		}
		s.phase = finalizeSendRequestControl
		return out, s, nil

	case finalizeSendRequestControl:
		ctl := &share.Control{Action: share.ActionRequestControl}
		body := make([]byte, ctl.Size())
		if err := ctl.Encode(cursor.NewWriter(body)); err != nil {
			return nil, nil, err
		}
		out, err := s.sendDataPDU(share.DataControl, body)
		if err != nil {
			return nil, nil, err
		}
		s.phase = finalizeWaitServerSync
		return out, s, nil

	case finalizeWaitServerSync:
		if err := s.expectDataPDU(input, share.DataSynchronize); err != nil {
			return nil, nil, err
		}
		s.phase = finalizeWaitGrantedControl
		return nil, s, nil

	case finalizeWaitGrantedControl:
		if err := s.expectDataPDU(input, share.DataControl); err != nil {
			return nil, nil, err
		}
		s.phase = finalizeSendFontList
		return nil, s, nil

	case finalizeSendFontList:
		fl := &share.FontList{}
		body := make([]byte, fl.Size())
		if err := fl.Encode(cursor.NewWriter(body)); err != nil {
			return nil, nil, err
		}
		out, err := s.sendDataPDU(share.DataFontList, body)
		if err != nil {
			return nil, nil, err
		}
		s.phase = finalizeWaitFontMap
		return out, s, nil

	case finalizeWaitFontMap:
		if err := s.expectDataPDU(input, share.DataFontMap); err != nil {
			return nil, nil, err
		}
		result := Result{
			UserChannelID:   s.hs.userChannelID,
			IOChannelID:     s.hs.ioChannelID,
			ChannelIDs:      s.hs.staticChanIDs,
			ServerCaps:      s.serverCaps,
			DesktopWidth:    s.hs.opts.DesktopWidth,
			DesktopHeight:   s.hs.opts.DesktopHeight,
		}
		return nil, &connected{result: result}, nil
	}
	return nil, nil, &pdu.InvalidMessageError{PDU: "ConnectionFinalization", Context: "step", Reason: "unreachable phase"}
}

// expectDataPDU unwraps a single Share Data PDU and checks its type,
// without surfacing the decoded body: finalization only cares that the
// scripted exchange stays in lockstep, not about the payload contents.
func (s *connectionFinalization) expectDataPDU(input []byte, want share.DataType) error {
	payload, err := x224.UnwrapData(cursor.NewReader(input))
	if err != nil {
		return err
	}
	sdi, err := mcs.DecodeSendDataIndication(cursor.NewReader(payload))
	if err != nil {
		return err
	}
	r := cursor.NewReader(sdi.Payload)
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

// --- 10. Connected -------------------------------------------------------------

// connected is the terminal state: the handshake is over and Connector.Done
// reports true once the machine reaches it.
type connected struct {
	result Result
}

func (c *connected) Name() string        { return "Connected" }
func (c *connected) NextPDUHint() PDUHint { return nil }
func (c *connected) Step(_ []byte) ([]byte, State, error) {
	return nil, nil, ErrConsumed
}
