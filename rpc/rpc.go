package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/avalon/logger"
	"github.com/wfunc/avalon/models"
	"github.com/wfunc/avalon/persistence"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services must be registered with the
// rpc package before Start is called.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsService exposes result-store queries over RPC for admin tooling.
type StatsService struct {
	store persistence.Store
}

// NewStatsService creates a new StatsService.
func NewStatsService(store persistence.Store) *StatsService {
	return &StatsService{store: store}
}

// Methods follow the net/rpc signature: exported method, exported
// arguments, second argument is a pointer, return type is error.
type LeaderboardArgs struct {
	GameName string
}

type LeaderboardReply struct {
	Entries []models.LeaderboardEntry
}

func (ss *StatsService) Leaderboard(args *LeaderboardArgs, reply *LeaderboardReply) error {
	entries, err := ss.store.Leaderboard(args.GameName)
	if err != nil {
		return err
	}
	reply.Entries = entries
	return nil
}

type PlayerStatsArgs struct {
	GameName   string
	PlayerName string
}

type PlayerStatsReply struct {
	Stats *models.PlayerStats
}

func (ss *StatsService) PlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := ss.store.PlayerStats(args.GameName, args.PlayerName)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
