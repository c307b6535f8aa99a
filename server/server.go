package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/avalon/avalon"
	"github.com/wfunc/avalon/broadcast"
	"github.com/wfunc/avalon/logger"
	"github.com/wfunc/avalon/monitor"
	"github.com/wfunc/avalon/network"
	"github.com/wfunc/avalon/persistence"
	avalon_rpc "github.com/wfunc/avalon/rpc"
	"github.com/wfunc/avalon/services"
	"github.com/wfunc/avalon/session"
	"github.com/wfunc/avalon/timer"
)

type GameServer struct {
	addr             string
	upgrader         websocket.Upgrader
	sessionManager   *session.Manager
	gameService      *services.GameService
	broadcaster      broadcast.Broadcaster
	rpcServer        *avalon_rpc.Server
	timerManager     *timer.TimerManager
	mon              *monitor.Monitor
	defaultSeatCount int
	idleTimeout      time.Duration
	shutdownChan     chan struct{}
}

// Options carries the tunables the server does not own.
type Options struct {
	Addr             string
	RPCAddr          string
	DefaultSeatCount int
	IdleTimeout      time.Duration
}

func NewGameServer(opts Options, engine *avalon.Engine, store persistence.Store, mon *monitor.Monitor) (*GameServer, error) {
	s := &GameServer{
		addr:             opts.Addr,
		sessionManager:   session.NewManager(),
		timerManager:     timer.NewTimerManager(),
		mon:              mon,
		defaultSeatCount: opts.DefaultSeatCount,
		idleTimeout:      opts.IdleTimeout,
		shutdownChan:     make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewSessionBroadcaster(s.sessionManager)
	s.gameService = services.NewGameService(engine, store, s.broadcaster, mon)

	// 初始化RPC服务器
	rpcServer, err := avalon_rpc.NewServer(opts.RPCAddr)
	if err != nil {
		return nil, err
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	if store != nil {
		rpc.Register(avalon_rpc.NewStatsService(store))
	}

	return s, nil
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	if s.idleTimeout > 0 {
		s.timerManager.AddTimer(time.Minute, time.Minute, s.sweepIdleSessions)
	}

	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.routes())
}

func (s *GameServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("POST /avalon/reset_game", s.handleResetGame)
	mux.HandleFunc("GET /avalon/lobby", s.handleLobby)
	mux.HandleFunc("POST /avalon/end_game", s.handleEndGame)
	mux.HandleFunc("POST /avalon/clear_game", s.handleClearGame)
	mux.HandleFunc("POST /avalon/join", s.handleJoin)
	mux.HandleFunc("POST /avalon/propose_team", s.handleProposeTeam)
	// Older clients propose through this name.
	mux.HandleFunc("POST /avalon/start_mission", s.handleProposeTeam)
	mux.HandleFunc("POST /avalon/vote_team", s.handleVoteTeam)
	mux.HandleFunc("POST /avalon/vote_mission", s.handleVoteMission)
	mux.HandleFunc("POST /avalon/assign_excalibur", s.handleAssignExcalibur)
	mux.HandleFunc("POST /avalon/use_excalibur", s.handleUseExcalibur)
	mux.HandleFunc("POST /avalon/lady_of_lake", s.handleLadyOfLake)
	mux.HandleFunc("POST /avalon/assassinate", s.handleAssassinate)
	mux.HandleFunc("POST /avalon/record_vote_fail", s.handleRecordVoteFail)
	mux.HandleFunc("GET /avalon/status/{player}", s.handleStatus)
	mux.HandleFunc("GET /avalon/leaderboard", s.handleLeaderboard)

	return mux
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

// sweepIdleSessions closes connections that have been silent longer than
// the configured idle timeout.
func (s *GameServer) sweepIdleSessions() {
	cutoff := time.Now().Add(-s.idleTimeout)
	for _, sess := range s.sessionManager.IdleSince(cutoff) {
		logger.Log.Infof("Closing idle session %s (player %q)", sess.GetID(), sess.PlayerName())
		sess.Close()
	}
}

// ---- JSON helpers ----

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto the wire. Rule violations are the
// caller's fault and come back as 400 with a detail message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, avalon.ErrWrongPhase),
		errors.Is(err, avalon.ErrRoomFull),
		errors.Is(err, avalon.ErrUnknownPlayer),
		errors.Is(err, avalon.ErrInvalidTeamSize),
		errors.Is(err, avalon.ErrInvalidTarget),
		errors.Is(err, avalon.ErrTransitionNotAllowed):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return false
	}
	return true
}

// ---- game handlers ----

func (s *GameServer) handleResetGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count      int  `json:"count"`
		Lancelot   bool `json:"lancelot"`
		Excalibur  bool `json:"excalibur"`
		LadyOfLake bool `json:"lady_of_lake"`
	}
	// Empty body resets to the configured default table.
	json.NewDecoder(r.Body).Decode(&req)
	if req.Count == 0 {
		req.Count = s.defaultSeatCount
	}

	previous := s.gameService.Reset(req.Count, req.Lancelot, req.Excalibur, req.LadyOfLake)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "game reset",
		"target_count":     req.Count,
		"previous_players": previous,
	})
}

func (s *GameServer) handleLobby(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gameService.Lobby())
}

func (s *GameServer) handleEndGame(w http.ResponseWriter, r *http.Request) {
	if err := s.gameService.ForceEnd(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "game ended"})
}

func (s *GameServer) handleClearGame(w http.ResponseWriter, r *http.Request) {
	previous := s.gameService.Clear()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "game cleared",
		"previous_players": previous,
	})
}

func (s *GameServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rejoined, err := s.gameService.Join(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	msg := "joined"
	if rejoined {
		msg = "already joined"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *GameServer) handleProposeTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Team     []string `json:"team"`
		Proposer string   `json:"proposer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	required, err := s.gameService.ProposeTeam(req.Team, req.Proposer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":            "team proposed",
		"required_team_size": required,
	})
}

func (s *GameServer) handleVoteTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Vote string `json:"vote"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.gameService.VoteTeam(req.Name, req.Vote)
	writeJSON(w, http.StatusOK, map[string]string{"message": "vote recorded"})
}

func (s *GameServer) handleVoteMission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Action string `json:"action"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.gameService.VoteMission(req.Name, req.Action)
	writeJSON(w, http.StatusOK, map[string]string{"message": "action recorded"})
}

func (s *GameServer) handleAssignExcalibur(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.gameService.AssignExcalibur(req.Target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "excalibur assigned"})
}

func (s *GameServer) handleUseExcalibur(w http.ResponseWriter, r *http.Request) {
	var req struct {
		// Empty target means the holder declined to use the sword.
		Target string `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := s.gameService.UseExcalibur(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "excalibur resolved",
		"excalibur_result": result,
	})
}

func (s *GameServer) handleLadyOfLake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	alignment, err := s.gameService.InspectLadyOfLake(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "inspection complete",
		"alignment": alignment,
	})
}

func (s *GameServer) handleAssassinate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	winner, err := s.gameService.Assassinate(req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "assassination resolved",
		"winner":  winner,
	})
}

func (s *GameServer) handleRecordVoteFail(w http.ResponseWriter, r *http.Request) {
	count := s.gameService.RecordVoteFail()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "vote fail recorded",
		"vote_fail_count": count,
	})
}

func (s *GameServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	player := r.PathValue("player")
	writeJSON(w, http.StatusOK, s.gameService.Status(player))
}

func (s *GameServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gameService.Leaderboard()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// ---- websocket ----

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

// heartbeatInterval matches the client's ping cadence; the connection's
// read deadline is twice this.
const heartbeatInterval = 30 * time.Second

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.mon != nil {
		s.mon.IncConnectedClients()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		if s.mon != nil {
			s.mon.DecConnectedClients()
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeIdentify:
		s.handleIdentify(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

// handleIdentify binds the session to a player name so targeted pushes
// reach it. The name is not authenticated; the table runs on trust.
func (s *GameServer) handleIdentify(sess *session.Session, packet *network.Packet) {
	var req map[string]string
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	name := req["name"]
	if name == "" {
		return
	}
	sess.SetPlayerName(name)
	logger.Log.Infof("Session %s identified as player %s", sess.GetID(), name)

	resp, _ := json.Marshal(map[string]string{"name": name})
	sess.Send(network.MsgTypeIdentify, resp)
}
