package commands

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcarmo/go-rdp/acceptor"
	"github.com/rcarmo/go-rdp/framed"
	"github.com/rcarmo/go-rdp/internal/config"
	"github.com/rcarmo/go-rdp/internal/observability"
	"github.com/rcarmo/go-rdp/protocol/x224"
	"github.com/rcarmo/go-rdp/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept inbound RDP connections and drive them to an active session",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Port, reg, logger)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer ln.Close()
	logger.Info("rdp-proxy serving", zap.String("addr", addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go handleConn(conn, cfg, logger, metrics)
	}
}

func serveMetrics(port int, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

func handleConn(conn net.Conn, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) {
	defer conn.Close()
	id := uuid.NewString()
	log := logger.With(zap.String("connection_id", id), zap.String("remote", conn.RemoteAddr().String()))

	_ = conn.SetReadDeadline(time.Now().Add(cfg.Server.ReadTimeout))

	opts := acceptor.Options{
		SupportedProtocols: x224.ProtocolSSL,
		Channels:           []string{"rdpdr", "rdpsnd", "cliprdr"},
		Capabilities:       defaultCapabilities(uint16(cfg.RDP.DefaultWidth), uint16(cfg.RDP.DefaultHeight)),
		SourceDescriptor:   "rdp-proxy",
	}
	acc, err := acceptor.New(opts)
	if err != nil {
		log.Error("invalid acceptor options", zap.Error(err))
		metrics.RecordConnection("rejected")
		return
	}

	fr := framed.NewReader(conn, cfg.RDP.BufferSize)
	fw := framed.NewWriter(conn)

	result, err := driveAcceptor(acc, fr, fw)
	if err != nil {
		log.Warn("handshake failed", zap.Error(err))
		metrics.RecordConnection("errored")
		return
	}
	metrics.RecordConnection("accepted")
	metrics.SessionStarted()
	start := time.Now()
	log.Info("session active",
		zap.Uint16("desktop_width", result.DesktopWidth),
		zap.Uint16("desktop_height", result.DesktopHeight))

	sess := session.New(session.RoleServer, nil, 0x03EA, result.UserChannelID, result.IOChannelID)
	runActiveSession(sess, fr, fw, log, metrics)
	metrics.SessionEnded(time.Since(start).Seconds())
}

func runActiveSession(sess *session.Session, fr *framed.Reader, fw *framed.Writer, log *zap.Logger, metrics *observability.Metrics) {
	for {
		frame, err := fr.ReadPDU(session.FindSize)
		if err != nil {
			log.Info("session ended", zap.Error(err))
			return
		}
		outputs, err := sess.Step(frame)
		if err != nil {
			log.Warn("session step failed", zap.Error(err))
			metrics.RecordDecodeError("session")
			return
		}
		for _, out := range outputs {
			switch o := out.(type) {
			case session.ResponseFrame:
				if err := fw.WritePDU(o.Frame); err != nil {
					log.Warn("writing response frame failed", zap.Error(err))
					return
				}
			case session.GraphicsUpdate:
				metrics.RecordGraphicsUpdate(fmt.Sprintf("%d", o.Code))
			case session.Terminate:
				log.Info("session terminated", zap.Error(o.Err))
				return
			}
		}
		for range sess.TakePendingInputs() {
			metrics.RecordInputEvent()
		}
	}
}
