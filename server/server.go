package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/wfunc/intersplice/broadcast"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/models"
	"github.com/wfunc/intersplice/monitor"
	"github.com/wfunc/intersplice/network"
	"github.com/wfunc/intersplice/room"
	"github.com/wfunc/intersplice/session"
)

const defaultHistoryLimit = 20

// Options tune the transport. Zero values disable rate limiting and pings.
type Options struct {
	Addr         string
	CommandRate  rate.Limit
	CommandBurst int
	Heartbeat    time.Duration
}

// History is the read side of the game archive.
type History interface {
	Recent(ctx context.Context, roomID string, limit int) ([]models.GameRecord, error)
}

type GameServer struct {
	opts         Options
	upgrader     websocket.Upgrader
	rooms        *room.Manager
	sessions     *session.Manager
	hub          *broadcast.Hub
	monitor      *monitor.Monitor
	history      History
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewGameServer wires the transport to the rooms. history may be nil.
func NewGameServer(opts Options, rooms *room.Manager, sessions *session.Manager, hub *broadcast.Hub, mon *monitor.Monitor, history History) *GameServer {
	s := &GameServer{
		opts:         opts,
		rooms:        rooms,
		sessions:     sessions,
		hub:          hub,
		monitor:      mon,
		history:      history,
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler routes the websocket endpoint and the HTTP side surfaces.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("GET /metrics", s.monitor.Handler())
	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/rooms/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start serves until Shutdown.
func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.opts.Addr)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then closes every websocket so the
// read loops run their disconnect path.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		err = s.httpServer.Shutdown(ctx)
		for _, sess := range s.sessions.All() {
			sess.Close()
		}
		s.wg.Wait()
	})
	return err
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	s.handleConnection(network.NewWSConnection(conn), r.URL.Query().Get("room"))
}

type errorEvent struct {
	Message string `json:"message"`
}

type pongEvent struct {
	Time int64 `json:"t"`
}

type pinger interface {
	Ping() error
}

// handleConnection is the per-connection read loop. roomHint, when set,
// binds the connection before its first message.
func (s *GameServer) handleConnection(conn network.Connection, roomHint string) {
	sess := session.NewSession(uuid.New().String(), conn, s.opts.CommandRate, s.opts.CommandBurst)
	s.sessions.Add(sess)
	s.monitor.IncConnections()
	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	done := make(chan struct{})
	defer func() {
		close(done)
		s.disconnect(sess)
	}()

	if s.opts.Heartbeat > 0 {
		conn.SetHeartbeat(s.opts.Heartbeat)
		if p, ok := conn.(pinger); ok {
			go s.keepAlive(p, done)
		}
	}

	if roomHint != "" {
		if _, err := s.bind(sess, roomHint, session.RoleNone); err != nil {
			sess.Send(network.EvtError, errorEvent{Message: err.Error()})
			return
		}
	}

	for {
		env, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, network.ErrMalformed) {
				s.monitor.MessageDropped("malformed")
				sess.Send(network.EvtError, errorEvent{Message: "malformed message"})
				continue
			}
			return
		}
		s.monitor.IncMessagesReceived()
		if !sess.Allow() {
			s.monitor.MessageDropped("rate_limited")
			continue
		}
		s.handleEnvelope(sess, env)
	}
}

func (s *GameServer) keepAlive(p pinger, done <-chan struct{}) {
	ticker := time.NewTicker(s.opts.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-s.shutdownChan:
			return
		case <-ticker.C:
			if err := p.Ping(); err != nil {
				return
			}
		}
	}
}

func (s *GameServer) handleEnvelope(sess *session.Session, env network.Envelope) {
	switch env.Type {
	case network.CmdHeartbeat:
		sess.Send(network.EvtPong, pongEvent{Time: time.Now().UnixMilli()})
		return
	case network.CmdDisconnect:
		// only the server may synthesise a disconnect
		s.monitor.MessageDropped("reserved")
		return
	}

	roomID, _ := sess.Room()
	if env.Room != "" {
		roomID = env.Room
	}
	r, err := s.bind(sess, roomID, roleFor(env.Type))
	if err != nil {
		sess.Send(network.EvtError, errorEvent{Message: err.Error()})
		return
	}
	if err := r.Submit(room.Command{Kind: env.Type, ConnID: sess.ID, Data: env.Data}); err != nil {
		logger.Log.Warnw("command not delivered", "room", r.ID, "session", sess.ID, "error", err)
	}
}

var errRoomMismatch = errors.New("connection is bound to another room")

// bind attaches sess to its room on first use and joins it to the room's
// broadcast group.
func (s *GameServer) bind(sess *session.Session, roomID string, role session.Role) (*room.Room, error) {
	roomID = room.NormalizeID(roomID)
	if current, _ := sess.Room(); current != "" && current != roomID {
		return nil, errRoomMismatch
	}
	r, err := s.rooms.GetOrCreate(roomID)
	if err != nil {
		return nil, err
	}
	sess.Bind(roomID, role)
	s.hub.Join(roomID, sess.ID)
	return r, nil
}

func roleFor(kind string) session.Role {
	switch kind {
	case network.CmdHostAttach:
		return session.RoleHost
	case network.CmdJoin, network.CmdReconnect:
		return session.RolePlayer
	}
	return session.RoleNone
}

func (s *GameServer) disconnect(sess *session.Session) {
	logger.Log.Infof("Connection closed from %s, session ID: %s", sess.Conn.RemoteAddr(), sess.GetID())
	if roomID, _ := sess.Room(); roomID != "" {
		s.hub.Detach(roomID, sess.ID)
		if r, ok := s.rooms.GetRoom(roomID); ok {
			_ = r.Submit(room.Command{Kind: network.CmdDisconnect, ConnID: sess.ID})
		}
	}
	s.sessions.Remove(sess.GetID())
	s.monitor.DecConnections()
	sess.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnw("failed to write response", "error", err)
	}
}

func (s *GameServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	list := make([]room.Summary, 0, s.rooms.Count())
	for _, rm := range s.rooms.Rooms() {
		if sum, err := rm.Summary(); err == nil {
			list = append(list, sum)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": list})
}

func (s *GameServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"records": []models.GameRecord{}})
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorEvent{Message: "limit must be a number"})
			return
		}
		limit = n
	}
	records, err := s.history.Recent(r.Context(), room.NormalizeID(r.PathValue("id")), limit)
	if err != nil {
		logger.Log.Warnw("history lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorEvent{Message: "history unavailable"})
		return
	}
	if records == nil {
		records = []models.GameRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"rooms":       s.rooms.Count(),
		"connections": s.sessions.Count(),
	})
}
