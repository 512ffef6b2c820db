package connector

import (
	"testing"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/protocol/caps"
	"github.com/rcarmo/go-rdp/protocol/gcc"
	"github.com/rcarmo/go-rdp/protocol/licensing"
	"github.com/rcarmo/go-rdp/protocol/mcs"
	"github.com/rcarmo/go-rdp/protocol/security"
	"github.com/rcarmo/go-rdp/protocol/share"
	"github.com/rcarmo/go-rdp/protocol/x224"
)

func testOptions() Options {
	return Options{
		Username:           "alice",
		Domain:             "",
		Password:           "hunter2",
		ClientName:         "go-rdp-test",
		DesktopWidth:       1024,
		DesktopHeight:      768,
		ColorDepth:         32,
		RequestedProtocols: x224.ProtocolSSL,
		Channels:           []gcc.ChannelDef{{Name: "rdpdr", Options: gcc.ChannelOptionInitialized}},
		Capabilities:       caps.List{&caps.General{OSMajorType: 1, OSMinorType: 3, ProtocolVersion: 0x0200}},
	}
}

func TestConnectorValidatesOptions(t *testing.T) {
	bad := testOptions()
	bad.ClientName = ""
	if _, err := New(bad); err == nil {
		t.Fatalf("expected validation error for empty client name")
	}
}

// encodeSlowPathIndication wraps an MCS SendDataIndication/X.224 Data frame around
// a slow-path share payload, mirroring wrapSlowPath but from the server's
// point of view.
func encodeSlowPathIndication(t *testing.T, userChannel, ioChannel uint16, ctl share.ControlHeader, body []byte) []byte {
	t.Helper()
	shareBuf := make([]byte, ctl.Size()+len(body))
	w := cursor.NewWriter(shareBuf)
	if err := ctl.Encode(w); err != nil {
		t.Fatalf("encode control header: %v", err)
	}
	w.WriteSlice(body)

	secHdr := &security.BasicHeader{}
	payload := make([]byte, secHdr.Size()+len(shareBuf))
	pw := cursor.NewWriter(payload)
	if err := secHdr.Encode(pw); err != nil {
		t.Fatalf("encode security header: %v", err)
	}
	pw.WriteSlice(shareBuf)

	sdi := &mcs.SendDataIndication{InitiatorID: userChannel, ChannelID: ioChannel, Payload: pw.Filled()}
	buf := make([]byte, sdi.Size())
	if err := sdi.Encode(cursor.NewWriter(buf)); err != nil {
		t.Fatalf("encode send data indication: %v", err)
	}
	return x224.WrapData(buf)
}

// TestConnectorFullHandshake drives the client connector through every
// state against hand-built server replies, exercising the entire
// ConnectionInitiation -> Connected sequence in one pass.
func TestConnectorFullHandshake(t *testing.T) {
	opts := testOptions()
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 1: ConnectionInitiationSendRequest
	_, out, err := c.Step(nil)
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected a Connection Request on the wire")
	}

	// 2: ConnectionInitiationWaitConfirm
	confirm := &x224.ConnectionConfirm{Type: x224.NegotiationTypeResponse, SelectedProtocol: x224.ProtocolSSL}
	confirmBuf := make([]byte, confirm.Size())
	if err := confirm.Encode(cursor.NewWriter(confirmBuf)); err != nil {
		t.Fatalf("encode confirm: %v", err)
	}
	if _, _, err := c.Step(confirmBuf); err != nil {
		t.Fatalf("step 2: %v", err)
	}

	// 3: EnhancedSecurityUpgrade (no input; represents the external TLS step)
	if _, _, err := c.Step(nil); err != nil {
		t.Fatalf("step 3: %v", err)
	}

	// 4a: BasicSettingsExchangeSendInitial
	_, out, err = c.Step(nil)
	if err != nil {
		t.Fatalf("step 4a: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected an MCS Connect Initial on the wire")
	}

	// 4b: BasicSettingsExchangeWaitResponse
	serverNetwork := &gcc.ServerNetworkData{IOChannelID: 0x03EB, ChannelIDs: []uint16{0x03EC}}
	netBuf := make([]byte, serverNetwork.Size())
	if err := serverNetwork.Encode(cursor.NewWriter(netBuf)); err != nil {
		t.Fatalf("encode server network data: %v", err)
	}
	ccResp := &gcc.ConferenceCreateResponse{UserData: netBuf}
	ccRespBuf := make([]byte, ccResp.Size())
	if err := ccResp.Encode(cursor.NewWriter(ccRespBuf)); err != nil {
		t.Fatalf("encode conference create response: %v", err)
	}
	connResp := &mcs.ConnectResponse{Result: 0, UserData: ccRespBuf}
	connRespBuf := make([]byte, connResp.Size())
	if err := connResp.Encode(cursor.NewWriter(connRespBuf)); err != nil {
		t.Fatalf("encode connect response: %v", err)
	}
	if _, _, err := c.Step(x224.WrapData(connRespBuf)); err != nil {
		t.Fatalf("step 4b: %v", err)
	}

	// 5: ChannelConnection (Erect-Domain -> Attach-User -> Channel-Join x3)
	if _, out, err = c.Step(nil); err != nil { // erect domain
		t.Fatalf("step 5 erect: %v", err)
	}
	if _, out, err = c.Step(nil); err != nil { // attach user request
		t.Fatalf("step 5 attach send: %v", err)
	}
	auc := &mcs.AttachUserConfirm{Result: 0, InitiatorID: 0x03EA}
	aucBuf := make([]byte, auc.Size())
	if err := auc.Encode(cursor.NewWriter(aucBuf)); err != nil {
		t.Fatalf("encode attach user confirm: %v", err)
	}
	if _, _, err = c.Step(x224.WrapData(aucBuf)); err != nil {
		t.Fatalf("step 5 attach wait: %v", err)
	}
	for i := 0; i < 3; i++ { // IO channel, user channel, one static channel
		_, out, err = c.Step(nil) // join request
		if err != nil {
			t.Fatalf("step 5 join send %d: %v", i, err)
		}
		r := cursor.NewReader(x224mustUnwrap(t, out))
		req, err := mcs.DecodeChannelJoinRequest(r)
		if err != nil {
			t.Fatalf("decode join request %d: %v", i, err)
		}
		jc := &mcs.ChannelJoinConfirm{Result: 0, InitiatorID: 0x03EA, Requested: req.ChannelID, ChannelID: req.ChannelID}
		jcBuf := make([]byte, jc.Size())
		if err := jc.Encode(cursor.NewWriter(jcBuf)); err != nil {
			t.Fatalf("encode join confirm %d: %v", i, err)
		}
		if _, _, err = c.Step(x224.WrapData(jcBuf)); err != nil {
			t.Fatalf("step 5 join wait %d: %v", i, err)
		}
	}

	// 6: SecureSettingsExchange
	if _, out, err = c.Step(nil); err != nil {
		t.Fatalf("step 6: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected a Client Info PDU on the wire")
	}

	// 7: LicensingExchange
	pre, body := licensing.ValidClientErrorAlert()
	licBuf := make([]byte, pre.Size()+body.Size())
	lw := cursor.NewWriter(licBuf)
	if err := pre.Encode(lw); err != nil {
		t.Fatalf("encode license preamble: %v", err)
	}
	if err := body.Encode(lw); err != nil {
		t.Fatalf("encode license error message: %v", err)
	}
	secHdr := &security.BasicHeader{Flags: 0}
	secBuf := make([]byte, secHdr.Size()+len(licBuf))
	sw := cursor.NewWriter(secBuf)
	if err := secHdr.Encode(sw); err != nil {
		t.Fatalf("encode security header: %v", err)
	}
	sw.WriteSlice(licBuf)
	sdi := &mcs.SendDataIndication{InitiatorID: 0x03EA, ChannelID: 0x03EB, Payload: sw.Filled()}
	sdiBuf := make([]byte, sdi.Size())
	if err := sdi.Encode(cursor.NewWriter(sdiBuf)); err != nil {
		t.Fatalf("encode send data indication: %v", err)
	}
	if _, _, err = c.Step(x224.WrapData(sdiBuf)); err != nil {
		t.Fatalf("step 7: %v", err)
	}

	// 8a: CapabilitiesExchangeWaitDemand
	demand := &share.DemandActive{ShareID: 0x10001, SourceDescriptor: "RDP", Capabilities: caps.List{&caps.General{OSMajorType: 1, ProtocolVersion: 0x0200}}, SessionID: 1}
	demandBuf := make([]byte, demand.Size())
	if err := demand.Encode(cursor.NewWriter(demandBuf)); err != nil {
		t.Fatalf("encode demand active: %v", err)
	}
	demandCtl := share.ControlHeader{Type: share.ControlDemandActive, PDUSource: 0x03EB}
	demandCtl.TotalLength = uint16(demandCtl.Size() + demand.Size())
	if _, _, err = c.Step(encodeSlowPathIndication(t, 0x03EA, 0x03EB, demandCtl, demandBuf)); err != nil {
		t.Fatalf("step 8a: %v", err)
	}

	// 8b: CapabilitiesExchangeSendConfirm
	if _, out, err = c.Step(nil); err != nil {
		t.Fatalf("step 8b: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected a Confirm Active PDU on the wire")
	}

	// 9: ConnectionFinalization
	if _, out, err = c.Step(nil); err != nil { // synchronize
		t.Fatalf("step 9 sync: %v", err)
	}
	if _, out, err = c.Step(nil); err != nil { // cooperate
		t.Fatalf("step 9 cooperate: %v", err)
	}
	if _, out, err = c.Step(nil); err != nil { // request control
		t.Fatalf("step 9 request control: %v", err)
	}

	syncBody := &share.Synchronize{TargetUser: 0x03EA}
	syncBuf := make([]byte, syncBody.Size())
	if err := syncBody.Encode(cursor.NewWriter(syncBuf)); err != nil {
		t.Fatalf("encode server sync: %v", err)
	}
	if _, _, err = c.Step(finalizationDataPDU(t, 0x03EA, 0x03EB, 0x10001, share.DataSynchronize, syncBuf)); err != nil {
		t.Fatalf("step 9 wait sync: %v", err)
	}

	ctlBody := &share.Control{Action: share.ActionGrantedControl, GrantID: 0x03EA, ControlID: 0x03EB}
	ctlBodyBuf := make([]byte, ctlBody.Size())
	if err := ctlBody.Encode(cursor.NewWriter(ctlBodyBuf)); err != nil {
		t.Fatalf("encode granted control: %v", err)
	}
	if _, _, err = c.Step(finalizationDataPDU(t, 0x03EA, 0x03EB, 0x10001, share.DataControl, ctlBodyBuf)); err != nil {
		t.Fatalf("step 9 wait granted control: %v", err)
	}

	if _, out, err = c.Step(nil); err != nil { // font list
		t.Fatalf("step 9 font list: %v", err)
	}

	fontMap := &share.FontMap{}
	fontMapBuf := make([]byte, fontMap.Size())
	if err := fontMap.Encode(cursor.NewWriter(fontMapBuf)); err != nil {
		t.Fatalf("encode font map: %v", err)
	}
	if _, _, err = c.Step(finalizationDataPDU(t, 0x03EA, 0x03EB, 0x10001, share.DataFontMap, fontMapBuf)); err != nil {
		t.Fatalf("step 9 wait font map: %v", err)
	}

	if !c.Done() {
		t.Fatalf("expected the connector to be done after the font map exchange")
	}
	result, err := c.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.UserChannelID != 0x03EA || result.IOChannelID != 0x03EB {
		t.Fatalf("unexpected channel ids: %+v", result)
	}
	if result.ChannelIDs["rdpdr"] != 0x03EC {
		t.Fatalf("expected rdpdr channel id 0x3EC, got %+v", result.ChannelIDs)
	}
}

func finalizationDataPDU(t *testing.T, userChannel, ioChannel uint16, shareID uint32, dt share.DataType, body []byte) []byte {
	t.Helper()
	data := share.DataHeader{ShareID: shareID, Type: dt, CompressedType: share.CompressionNone}
	data.UncompressedLength = uint16(data.Size() + len(body))
	dataBuf := make([]byte, data.Size()+len(body))
	dw := cursor.NewWriter(dataBuf)
	if err := data.Encode(dw); err != nil {
		t.Fatalf("encode data header: %v", err)
	}
	dw.WriteSlice(body)

	ctl := share.ControlHeader{Type: share.ControlData, PDUSource: userChannel}
	ctl.TotalLength = uint16(ctl.Size() + len(dataBuf))
	return encodeSlowPathIndication(t, userChannel, ioChannel, ctl, dataBuf)
}

func x224mustUnwrap(t *testing.T, frame []byte) []byte {
	t.Helper()
	payload, err := x224.UnwrapData(cursor.NewReader(frame))
	if err != nil {
		t.Fatalf("unwrap x224 data: %v", err)
	}
	return payload
}
