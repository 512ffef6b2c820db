package gcc

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// ClientDataBlocks holds the decoded client data blocks carried inside a
// Conference-Create-Request. Optional blocks are nil when absent.
type ClientDataBlocks struct {
	Core            *ClientCoreData
	Security        *ClientSecurityData
	Network         *ClientNetworkData
	Cluster         *ClientClusterData
	Monitor         *ClientMonitorData
	MessageChannel  *ClientMessageChannelData
	Multitransport  *ClientMultitransportData
}

// DecodeClientDataBlocks walks the concatenated, self-length-prefixed
// blocks inside a Conference-Create-Request's user data.
func DecodeClientDataBlocks(data []byte) (*ClientDataBlocks, error) {
	out := &ClientDataBlocks{}
	r := cursor.NewReader(data)
	for !r.Eof() {
		if err := r.Ensure(4); err != nil {
			return nil, &pdu.ShortReadError{PDU: "GCCClientDataBlocks", Received: r.Len(), Expected: 4}
		}
		blockType := r.PeekU16LE()
		start := r.Pos()
		var err error
		switch blockType {
		case BlockCSCore:
			out.Core, err = DecodeClientCoreData(r)
		case BlockCSSecurity:
			out.Security, err = DecodeClientSecurityData(r)
		case BlockCSNetwork:
			out.Network, err = DecodeClientNetworkData(r)
		case BlockCSCluster:
			out.Cluster, err = DecodeClientClusterData(r)
		case BlockCSMonitor:
			out.Monitor, err = DecodeClientMonitorData(r)
		case BlockCSMessageChannel:
			out.MessageChannel, err = DecodeClientMessageChannelData(r)
		case BlockCSMultitransport:
			out.Multitransport, err = DecodeClientMultitransportData(r)
		default:
			_, _, err = skipUnknownBlock(r)
		}
		if err != nil {
			return nil, err
		}
		if r.Pos() == start {
			return nil, &pdu.InvalidMessageError{PDU: "GCCClientDataBlocks", Context: "block walk", Reason: "decoder made no progress"}
		}
	}
	return out, nil
}

// ServerDataBlocks holds the decoded server data blocks carried inside a
// Conference-Create-Response. Optional blocks are nil when absent.
type ServerDataBlocks struct {
	Core           *ServerCoreData
	Security       *ServerSecurityData
	Network        *ServerNetworkData
	MessageChannel *ServerMessageChannelData
	Multitransport *ServerMultitransportData
}

// DecodeServerDataBlocks walks the concatenated, self-length-prefixed
// blocks inside a Conference-Create-Response's user data.
func DecodeServerDataBlocks(data []byte) (*ServerDataBlocks, error) {
	out := &ServerDataBlocks{}
	r := cursor.NewReader(data)
	for !r.Eof() {
		if err := r.Ensure(4); err != nil {
			return nil, &pdu.ShortReadError{PDU: "GCCServerDataBlocks", Received: r.Len(), Expected: 4}
		}
		blockType := r.PeekU16LE()
		start := r.Pos()
		var err error
		switch blockType {
		case BlockSCCore:
			out.Core, err = DecodeServerCoreData(r)
		case BlockSCSecurity:
			out.Security, err = DecodeServerSecurityData(r)
		case BlockSCNetwork:
			out.Network, err = DecodeServerNetworkData(r)
		case BlockSCMessageChannel:
			out.MessageChannel, err = DecodeServerMessageChannelData(r)
		case BlockSCMultitransport:
			out.Multitransport, err = DecodeServerMultitransportData(r)
		default:
			_, _, err = skipUnknownBlock(r)
		}
		if err != nil {
			return nil, err
		}
		if r.Pos() == start {
			return nil, &pdu.InvalidMessageError{PDU: "GCCServerDataBlocks", Context: "block walk", Reason: "decoder made no progress"}
		}
	}
	return out, nil
}

func skipUnknownBlock(r *cursor.Reader) (uint16, int, error) {
	const name = "GCCUnknownBlock"
	blockType, bodyLen, err := readBlockHeader(name, r)
	if err != nil {
		return 0, 0, err
	}
	if _, err := r.TryReadSlice(bodyLen); err != nil {
		return 0, 0, err
	}
	return blockType, bodyLen, nil
}
