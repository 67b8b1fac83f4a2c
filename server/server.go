package server

import (
	"errors"
	"net/http"
	netrpc "net/rpc"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/jkobber/quizroom/broadcast"
	"github.com/jkobber/quizroom/config"
	"github.com/jkobber/quizroom/logger"
	"github.com/jkobber/quizroom/monitor"
	"github.com/jkobber/quizroom/network"
	"github.com/jkobber/quizroom/persistence"
	"github.com/jkobber/quizroom/question"
	"github.com/jkobber/quizroom/room"
	quizrpc "github.com/jkobber/quizroom/rpc"
	"github.com/jkobber/quizroom/services"
	"github.com/jkobber/quizroom/session"
	"github.com/jkobber/quizroom/timer"
)

const qrSize = 320

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	history        *services.History
	broadcaster    room.Broadcaster
	rpcServer      *quizrpc.Server
	mon            *monitor.Monitor
	timers         *timer.Manager
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, store persistence.Store) *GameServer {
	settings := room.Settings{
		MaxQuestions: cfg.Game.MaxQuestions,
		QuestionTime: time.Duration(cfg.Game.QuestionSeconds) * time.Second,
		HostGrace:    time.Duration(cfg.Game.HostGraceSeconds) * time.Second,
		IdleGrace:    time.Duration(cfg.Game.IdleGraceSeconds) * time.Second,
	}

	s := &GameServer{
		cfg:            cfg,
		roomManager:    room.NewManager(settings),
		sessionManager: session.NewManager(),
		history:        services.NewHistory(store),
		mon:            monitor.NewMonitor("quizroom"),
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	s.roomManager.StartReaper(s.timers, time.Minute)

	rpcServer, err := quizrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	netrpc.Register(quizrpc.NewAdminService(s.roomManager, s.history))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.mon.StartServer(s.cfg.Server.MetricsAddress)

	router := httprouter.New()
	router.GET("/ws/:code", s.handleWebSocket)
	router.GET("/qr/:code", s.handleQR)
	router.GET("/healthz", s.handleHealth)

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, router)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleQR serves a PNG QR code with the join link for an existing room.
func (s *GameServer) handleQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := strings.ToUpper(ps.ByName("code"))
	if _, exists := s.roomManager.GetRoom(code); !exists {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	url := strings.TrimSuffix(s.cfg.Server.PublicURL, "/") + "/join/" + code
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, strings.ToUpper(ps.ByName("code")))
}

func (s *GameServer) handleConnection(conn *websocket.Conn, pathCode string) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.NewString(), wsConn)
	s.sessionManager.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.detach(sess)
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			raw, err := wsConn.Read()
			if err != nil {
				return
			}
			s.handleMessage(sess, pathCode, raw)
		}
	}
}

// detach marks the bound player disconnected and drops the session. All
// player state stays in the room pending a reconnect.
func (s *GameServer) detach(sess *session.Session) {
	s.mon.DecOnlinePlayers()
	s.sessionManager.Remove(sess.GetID())

	code, playerID := sess.Binding()
	if playerID != "" {
		if r, exists := s.roomManager.GetRoom(code); exists {
			r.MarkDisconnected(playerID)
		}
	}

	sess.Close()
}

func (s *GameServer) handleMessage(sess *session.Session, pathCode string, raw []byte) {
	start := time.Now()
	s.mon.IncMessagesReceived()
	defer func() {
		s.mon.ObserveMessageLatency(time.Since(start))
	}()

	in, err := network.Decode(raw)
	if err != nil {
		sess.Send(network.NewError(network.KindProtocolError, err.Error()))
		return
	}

	switch in.Type {
	case network.MsgHello:
		s.handleHello(sess, pathCode, in)
	case network.MsgPing:
		sess.Touch()
		sess.Send(network.NewPong())
	default:
		s.handleCommand(sess, in)
	}
}

func (s *GameServer) handleHello(sess *session.Session, pathCode string, in *network.Inbound) {
	if in.Create {
		questions, err := question.Load(s.cfg.Game.QuestionsPath)
		if err != nil {
			logger.Log.Errorf("Question source failure: %v", err)
			sess.Send(network.NewError(network.KindQuestionSourceError, err.Error()))
			return
		}

		r, hostID, err := s.roomManager.CreateRoom(in.Name, in.Avatar, questions, s.broadcaster, s.history)
		if err != nil {
			sess.Send(network.NewError(errorKind(err), err.Error()))
			return
		}

		sess.Bind(r.Code, hostID)
		s.mon.SetActiveRooms(s.roomManager.Count())

		logger.Log.Infof("Session %s created room %s", sess.GetID(), r.Code)

		sess.Send(network.NewHelloOK(hostID, r.Code))
		sess.Send(network.NewRoomUpdate(r.Snapshot()))
		return
	}

	r, exists := s.roomManager.GetRoom(pathCode)
	if !exists {
		sess.Send(network.NewError(network.KindNotFound, "room not found"))
		return
	}

	playerID, reconnect, err := r.Join(in.Name, in.Avatar, in.Token)
	if err != nil {
		sess.Send(network.NewError(errorKind(err), err.Error()))
		return
	}

	sess.Bind(r.Code, playerID)

	if reconnect {
		logger.Log.Infof("Session %s reconnected player %s to room %s", sess.GetID(), playerID, r.Code)
	} else {
		logger.Log.Infof("Session %s joined room %s as player %s", sess.GetID(), r.Code, playerID)
	}

	sess.Send(network.NewHelloOK(playerID, r.Code))
	sess.Send(network.NewRoomUpdate(r.Snapshot()))
}

func (s *GameServer) handleCommand(sess *session.Session, in *network.Inbound) {
	code, playerID := sess.Binding()
	if playerID == "" {
		sess.Send(network.NewError(network.KindProtocolError, "hello required before any other message"))
		return
	}

	r, exists := s.roomManager.GetRoom(code)
	if !exists {
		sess.Send(network.NewError(network.KindNotFound, "room no longer exists"))
		return
	}

	var err error
	switch in.Type {
	case network.MsgStart:
		err = r.Start(playerID)
	case network.MsgAnswer:
		err = r.SubmitAnswer(playerID, *in.Choice)
	case network.MsgJoker:
		err = r.UseJoker(playerID, room.JokerKind(in.Kind))
	case network.MsgReveal:
		err = r.Reveal(playerID)
	case network.MsgNext:
		err = r.Next(playerID)
	case network.MsgKick:
		err = r.Kick(playerID, in.Target)
		if err == nil {
			s.closePlayerSessions(code, in.Target, true)
		}
	case network.MsgEnd:
		err = r.End(playerID)
		if err == nil {
			s.teardownRoom(code)
		}
	default:
		err = network.ErrMalformed
	}

	if err != nil {
		sess.Send(network.NewError(errorKind(err), err.Error()))
	}
}

// closePlayerSessions force-closes every channel of one player, optionally
// telling them they were kicked first.
func (s *GameServer) closePlayerSessions(roomCode, playerID string, kicked bool) {
	for _, target := range s.sessionManager.ByPlayer(roomCode, playerID) {
		if kicked {
			target.Send(network.NewKicked())
		}
		target.Close()
		s.sessionManager.Remove(target.GetID())
	}
}

// teardownRoom destroys a room after an explicit host end.
func (s *GameServer) teardownRoom(code string) {
	sessions := s.sessionManager.ByRoom(code)
	s.roomManager.RemoveRoom(code)
	for _, sess := range sessions {
		sess.Close()
		s.sessionManager.Remove(sess.GetID())
	}
	s.mon.SetActiveRooms(s.roomManager.Count())
	logger.Log.Infof("Room %s ended by host", code)
}

// errorKind maps command errors onto the wire taxonomy.
func errorKind(err error) string {
	switch {
	case errors.Is(err, room.ErrInvalidState):
		return network.KindInvalidState
	case errors.Is(err, room.ErrAlreadyAnswered):
		return network.KindAlreadyAnswered
	case errors.Is(err, room.ErrJokerAlreadyUsed):
		return network.KindJokerAlreadyUsed
	case errors.Is(err, room.ErrJokerUnavailable):
		return network.KindJokerUnavailable
	case errors.Is(err, room.ErrNotFound):
		return network.KindNotFound
	case errors.Is(err, room.ErrUnauthorized):
		return network.KindUnauthorized
	case errors.Is(err, question.ErrSource):
		return network.KindQuestionSourceError
	default:
		return network.KindProtocolError
	}
}
