package rpc

import (
	"net"
	"net/rpc"

	"github.com/jkobber/quizroom/logger"
	"github.com/jkobber/quizroom/models"
	"github.com/jkobber/quizroom/room"
	"github.com/jkobber/quizroom/services"
)

// Server manages the RPC listener for the admin surface.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the caller
// through the standard net/rpc registry.
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

// AdminService exposes the registry and game archive over net/rpc.
type AdminService struct {
	rooms   *room.Manager
	history *services.History
}

func NewAdminService(rooms *room.Manager, history *services.History) *AdminService {
	return &AdminService{rooms: rooms, history: history}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []room.Summary
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = a.rooms.Summaries()
	return nil
}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Games []models.GameRecord
}

func (a *AdminService) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	games, err := a.history.RecentGames(args.Limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}
