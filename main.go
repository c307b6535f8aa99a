package main

import (
	"math/rand"

	"github.com/wfunc/avalon/avalon"
	"github.com/wfunc/avalon/config"
	"github.com/wfunc/avalon/logger"
	"github.com/wfunc/avalon/monitor"
	"github.com/wfunc/avalon/persistence"
	"github.com/wfunc/avalon/random"
	"github.com/wfunc/avalon/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database. The game plays on without a result store.
	var store persistence.Store
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Warnf("Result store unavailable, games will not be recorded: %v", err)
	} else {
		logger.Log.Info("Database connection successful.")
		store = db
	}

	// Initialize Metrics
	mon := monitor.NewMonitor("avalon")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Engine with a fresh seed for role shuffles
	seed, err := random.NewSeed()
	if err != nil {
		logger.Log.Fatalf("Failed to seed rng: %v", err)
	}
	engine := avalon.NewEngine(rand.New(rand.NewSource(seed)))

	// Initialize Game Server
	gameServer, err := server.NewGameServer(server.Options{
		Addr:             cfg.Server.HTTPAddress,
		RPCAddr:          cfg.Server.RPCAddress,
		DefaultSeatCount: cfg.Game.DefaultSeatCount,
		IdleTimeout:      cfg.Game.IdleTimeout,
	}, engine, store, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create game server: %v", err)
	}

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
