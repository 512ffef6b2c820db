package commands

import (
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcarmo/go-rdp/connector"
	"github.com/rcarmo/go-rdp/framed"
	"github.com/rcarmo/go-rdp/internal/observability"
	"github.com/rcarmo/go-rdp/protocol/gcc"
	"github.com/rcarmo/go-rdp/protocol/x224"
	"github.com/rcarmo/go-rdp/session"
)

var (
	flagTarget     string
	flagUsername   string
	flagDomain     string
	flagPassword   string
	flagClientName string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Drive an outbound RDP connection with the connector state machine",
	RunE:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&flagTarget, "target", "", "host:port of the RDP server to connect to (required)")
	connectCmd.Flags().StringVar(&flagUsername, "username", "", "RDP username")
	connectCmd.Flags().StringVar(&flagDomain, "domain", "", "RDP domain")
	connectCmd.Flags().StringVar(&flagPassword, "password", "", "RDP password")
	connectCmd.Flags().StringVar(&flagClientName, "client-name", "rdp-proxy", "client name sent in the GCC Client Core Data block")
	_ = connectCmd.MarkFlagRequired("target")
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	metrics := observability.NewMetrics(prometheus.NewRegistry())

	conn, err := net.DialTimeout("tcp", flagTarget, cfg.RDP.Timeout)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", flagTarget, err)
	}
	defer conn.Close()

	opts := connector.Options{
		Username:           flagUsername,
		Domain:             flagDomain,
		Password:           flagPassword,
		ClientName:         flagClientName,
		DesktopWidth:       cfg.RDP.DefaultWidth,
		DesktopHeight:      cfg.RDP.DefaultHeight,
		ColorDepth:         32,
		RequestedProtocols: x224.ProtocolSSL,
		Channels:           []gcc.ChannelDef{{Name: "rdpdr"}, {Name: "rdpsnd"}, {Name: "cliprdr"}},
		Capabilities:       defaultCapabilities(cfg.RDP.DefaultWidth, cfg.RDP.DefaultHeight),
	}
	c, err := connector.New(opts)
	if err != nil {
		return fmt.Errorf("invalid connector options: %w", err)
	}

	fr := framed.NewReader(conn, cfg.RDP.BufferSize)
	fw := framed.NewWriter(conn)

	result, err := driveConnector(c, fr, fw)
	if err != nil {
		metrics.RecordConnection("errored")
		return fmt.Errorf("connect handshake: %w", err)
	}
	metrics.RecordConnection("accepted")
	metrics.SessionStarted()
	start := time.Now()
	logger.Info("connected",
		zap.String("target", flagTarget),
		zap.Uint16("desktop_width", result.DesktopWidth),
		zap.Uint16("desktop_height", result.DesktopHeight))

	sess := session.New(session.RoleClient, nil, 0x03EA, result.UserChannelID, result.IOChannelID)
	runActiveSession(sess, fr, fw, logger, metrics)
	metrics.SessionEnded(time.Since(start).Seconds())
	return nil
}
