package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/models"
	"github.com/wfunc/intersplice/room"
	"github.com/wfunc/intersplice/state"
)

var (
	ErrUnknownRoom = errors.New("unknown room")
	ErrNoHistory   = errors.New("game archive disabled")
)

const historyTimeout = 5 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and registers the given services on a private
// rpc.Server, so several servers can coexist in one process.
func NewServer(addr string, services ...any) (*Server, error) {
	srv := rpc.NewServer()
	for _, svc := range services {
		if err := srv.Register(svc); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      srv,
	}, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Rooms is the part of room.Manager the admin service reads.
type Rooms interface {
	Rooms() []*room.Room
	GetRoom(id string) (*room.Room, bool)
}

// History is the part of the archive the admin service reads.
type History interface {
	Recent(ctx context.Context, roomID string, limit int) ([]models.GameRecord, error)
	Record(ctx context.Context, id uint) (models.GameRecord, error)
}

// Admin exposes read-only room state over net/rpc.
// Methods follow the net/rpc shape: exported args, pointer reply, error.
type Admin struct {
	rooms   Rooms
	history History
}

// NewAdmin creates the service. history may be nil.
func NewAdmin(rooms Rooms, history History) *Admin {
	return &Admin{rooms: rooms, history: history}
}

// ListRoomsArgs filters by phase when Phase is set.
type ListRoomsArgs struct {
	Phase state.Phase
}

type ListRoomsReply struct {
	Rooms []room.Summary
}

func (a *Admin) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, r := range a.rooms.Rooms() {
		s, err := r.Summary()
		if err != nil {
			// closed between listing and querying
			continue
		}
		if args.Phase != "" && s.Phase != args.Phase {
			continue
		}
		reply.Rooms = append(reply.Rooms, s)
	}
	return nil
}

type SnapshotArgs struct {
	RoomID string
}

type SnapshotReply struct {
	Snapshot game.Snapshot
}

func (a *Admin) Snapshot(args *SnapshotArgs, reply *SnapshotReply) error {
	r, ok := a.rooms.GetRoom(args.RoomID)
	if !ok {
		return ErrUnknownRoom
	}
	snap, err := r.Snapshot()
	if err != nil {
		return err
	}
	reply.Snapshot = snap
	return nil
}

type HistoryArgs struct {
	RoomID string
	Limit  int
}

type HistoryReply struct {
	Records []models.GameRecord
}

func (a *Admin) History(args *HistoryArgs, reply *HistoryReply) error {
	if a.history == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	records, err := a.history.Recent(ctx, args.RoomID, args.Limit)
	if err != nil {
		return err
	}
	reply.Records = records
	return nil
}

type RecordArgs struct {
	ID uint
}

type RecordReply struct {
	Record models.GameRecord
}

// Record fetches one archived game by id.
func (a *Admin) Record(args *RecordArgs, reply *RecordReply) error {
	if a.history == nil {
		return ErrNoHistory
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	rec, err := a.history.Record(ctx, args.ID)
	if err != nil {
		return err
	}
	reply.Record = rec
	return nil
}
