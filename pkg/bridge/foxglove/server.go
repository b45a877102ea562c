package foxglove

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"vitured/pkg/engine"
	"vitured/pkg/protocol"
)

const (
	Subprotocol = "foxglove.websocket.v1"

	IMUChannelID       uint64 = 1
	TransformChannelID uint64 = 2
	MarkerChannelID    uint64 = 3
	LogChannelID       uint64 = 4
)

// Server bridges hub packets to Foxglove Studio over the foxglove
// WebSocket protocol.
type Server struct {
	cfg        Config
	hub        *engine.Hub
	channels   []Channel
	channelIDs map[uint64]struct{}
	logger     *log.Entry

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewServer(cfg Config, hub *engine.Hub) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg: cfg,
		hub: hub,
		channels: []Channel{
			jsonChannel(IMUChannelID, cfg.IMUTopic, "vitured.IMU", IMUSchema),
			jsonChannel(TransformChannelID, cfg.TransformTopic, "foxglove.FrameTransforms", frameTransformsSchema),
			jsonChannel(MarkerChannelID, cfg.MarkerTopic, "visualization_msgs/Marker", markerSchema),
			jsonChannel(LogChannelID, cfg.LogTopic, "foxglove.Log", logSchema),
		},
		channelIDs: make(map[uint64]struct{}),
		clients:    make(map[*client]struct{}),
		logger:     log.WithFields(log.Fields{"component": "foxglove", "addr": cfg.WSAddr}),
	}
	for _, ch := range s.channels {
		s.channelIDs[ch.ID] = struct{}{}
	}
	return s
}

func jsonChannel(id uint64, topic, schemaName, schema string) Channel {
	return Channel{
		ID:             id,
		Topic:          topic,
		Encoding:       "json",
		SchemaName:     schemaName,
		SchemaEncoding: "jsonschema",
		Schema:         schema,
	}
}

// Run serves until ctx is done. It returns once the listener is closed.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.WSAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.WSAddr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	httpServer := &http.Server{Handler: mux}

	sub := s.hub.Subscribe()
	go s.broadcastLoop(ctx, sub)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	s.logger.Info("foxglove bridge listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = httpServer.Shutdown(shutdownCtx)
		cancel()
		s.closeClients()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		Subprotocols: []string{Subprotocol},
		CheckOrigin: func(*http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("upgrade failed")
		return
	}
	c := newClient(conn, s.cfg.SendBuf)
	defer c.close()

	hello := []any{
		s.serverInfo(),
		AdvertiseMsg{Op: OpAdvertise, Channels: s.channels},
	}
	for _, msg := range hello {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	entry := s.logger.WithField("remote", r.RemoteAddr)
	entry.Debug("client connected")

	c.serve(s.channelIDs)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	entry.Debug("client disconnected")
}

func (s *Server) serverInfo() ServerInfoMsg {
	return ServerInfoMsg{
		Op:                 OpServerInfo,
		Name:               s.cfg.Name,
		Capabilities:       []string{},
		SupportedEncodings: []string{},
		SessionID:          fmt.Sprintf("%d", time.Now().UTC().UnixNano()),
	}
}

func (s *Server) broadcastLoop(ctx context.Context, sub <-chan protocol.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-sub:
			if !ok {
				return
			}
			s.broadcast(pkt)
		}
	}
}

func (s *Server) broadcast(pkt protocol.Packet) {
	ts := pkt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	switch pkt.Kind {
	case protocol.KindIMU:
		sample, ok := pkt.IMU()
		if !ok {
			return
		}
		s.publish(IMUChannelID, ts, imuRecord(pkt, sample, ts))
		if q := sample.Quaternion; q != nil {
			s.publish(TransformChannelID, ts, s.cfg.transform(*q, ts))
			s.publish(MarkerChannelID, ts, s.cfg.marker(*q, ts))
		}
	case protocol.KindMCU:
		s.publish(LogChannelID, ts, s.cfg.mcuLog(pkt, ts))
	}
}

func (s *Server) publish(channelID uint64, ts time.Time, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.WithError(err).WithField("channel", channelID).Warn("encode message")
		return
	}
	logTime := uint64(ts.UnixNano())

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.deliver(channelID, logTime, payload)
	}
}

func (s *Server) closeClients() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.close()
	}
}
