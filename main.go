package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/wfunc/intersplice/broadcast"
	"github.com/wfunc/intersplice/config"
	"github.com/wfunc/intersplice/game"
	"github.com/wfunc/intersplice/logger"
	"github.com/wfunc/intersplice/monitor"
	"github.com/wfunc/intersplice/persistence"
	"github.com/wfunc/intersplice/room"
	"github.com/wfunc/intersplice/rpc"
	"github.com/wfunc/intersplice/server"
	"github.com/wfunc/intersplice/services"
	"github.com/wfunc/intersplice/session"
)

const archiveBuffer = 64

func gameSettings(cfg config.GameConfig) *game.Settings {
	s := game.DefaultSettings()
	s.NumberSeconds = cfg.NumberSeconds
	s.MovementSeconds = cfg.MovementSeconds
	s.ResolutionSeconds = cfg.ResolutionSeconds
	s.RefreshSeconds = cfg.RefreshSeconds
	s.RefreshEvery = cfg.RefreshEvery
	s.HazardsPerRefresh = cfg.HazardsPerRefresh
	s.LootPerRefresh = cfg.LootPerRefresh
	s = s.Normalize()
	return &s
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init(false)
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Development)
	defer logger.Sync()

	// Initialize the game archive
	recorder, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.Database.Enabled {
		logger.Log.Info("Database connection successful.")
	}
	archive := services.NewArchiveService(recorder, archiveBuffer)

	mon := monitor.NewMonitor("intersplice")
	sessions := session.NewManager()
	hub := broadcast.NewHub(sessions)
	rooms := room.NewRoomManager(hub, room.Options{
		Tick:       time.Duration(cfg.Server.TickIntervalMS) * time.Millisecond,
		BoardSize:  cfg.Game.BoardSize,
		Settings:   gameSettings(cfg.Game),
		Metrics:    mon,
		OnGameOver: archive.OnGameOver,
	}, cfg.Server.MaxRooms)

	var rpcServer *rpc.Server
	if cfg.Server.RPCAddress != "" {
		rpcServer, err = rpc.NewServer(cfg.Server.RPCAddress, rpc.NewAdmin(rooms, archive))
		if err != nil {
			logger.Log.Fatalf("Failed to create RPC server: %v", err)
		}
		go rpcServer.Start()
	}

	if cfg.Server.MetricsAddress != "" {
		metricsServer := mon.StartServer(cfg.Server.MetricsAddress)
		defer metricsServer.Close()
		logger.Log.Infof("Metrics listening on %s", cfg.Server.MetricsAddress)
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(server.Options{
		Addr:         cfg.Server.HTTPAddress,
		CommandRate:  rate.Limit(cfg.Server.CommandRate),
		CommandBurst: cfg.Server.CommandBurst,
		Heartbeat:    time.Duration(cfg.Server.HeartbeatSec) * time.Second,
	}, rooms, sessions, hub, mon, archive)

	errChan := make(chan error, 1)
	go func() {
		errChan <- gameServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Log.Infof("Received %s, shutting down", sig)
	case err := <-errChan:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Warnf("HTTP shutdown: %v", err)
	}
	if rpcServer != nil {
		rpcServer.Stop()
	}
	rooms.Close()
	if err := archive.Close(); err != nil {
		logger.Log.Warnf("Closing archive: %v", err)
	}
	logger.Log.Info("Server stopped.")
}
