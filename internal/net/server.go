package net

import (
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts connections and creates Sessions. New and dead sessions
// are handed to the server loop over channels. TCP and WebSocket
// listeners feed the same channels.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64 // ids of dead sessions
	opts     SessionOptions
	log      *zap.Logger
	closeCh  chan struct{}
	closed   atomic.Bool
	ws       *wsListener
}

func NewServer(bindAddr string, opts SessionOptions, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return newServer(ln, opts, log), nil
}

func newServer(ln net.Listener, opts SessionOptions, log *zap.Logger) *Server {
	return &Server{
		listener: ln,
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		opts:     opts,
		log:      log,
		closeCh:  make(chan struct{}),
	}
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			default:
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}
		s.adopt(conn, "tcp")
	}
}

// adopt wraps an accepted connection in a Session and hands it to the loop.
func (s *Server) adopt(conn net.Conn, transport string) *Session {
	id := s.nextID.Add(1)
	sess := NewSession(conn, id, transport, s.opts, s.log)
	sess.Start()

	s.log.Info("client connected",
		zap.Uint64("session", id),
		zap.String("ip", sess.IP),
		zap.String("transport", transport),
	)

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("connection queue full, rejecting client")
		sess.Close()
	}
	return sess
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead reports a dead session id to the loop.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of dead session ids.
func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}

// Shutdown stops accepting new connections on every listener.
func (s *Server) Shutdown() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.closeCh)
	s.listener.Close()
	if s.ws != nil {
		s.ws.close()
	}
}

// Addr returns the TCP listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
