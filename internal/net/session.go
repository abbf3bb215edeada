package net

import (
	"encoding/binary"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net/packet"
)

// SessionOptions are the per-connection limits taken from [network] and
// [rate_limit].
type SessionOptions struct {
	InQueueSize   int
	OutQueueSize  int
	PacketsPerSec int // 0 = unlimited
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; room and player state is touched only from the
// server loop.
type Session struct {
	ID   uint64
	conn net.Conn

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // server loop reads frame bodies from here
	OutQueue chan []byte // writer goroutine reads from here

	IP        string
	Transport string // "tcp" or "ws"
	AccountID int64

	outBuf [][]byte // buffered frames, flushed by the output system (loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	// Per-second packet rate limiter (readLoop goroutine only)
	pktPerSec  int
	pktCount   int
	pktResetAt int64

	readTimeout  time.Duration
	writeTimeout time.Duration

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, transport string, opts SessionOptions, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, opts.InQueueSize),
		OutQueue:     make(chan []byte, opts.OutQueueSize),
		IP:           conn.RemoteAddr().String(),
		Transport:    transport,
		closeCh:      make(chan struct{}),
		pktPerSec:    opts.PacketsPerSec,
		readTimeout:  opts.ReadTimeout,
		writeTimeout: opts.WriteTimeout,
		log:          log.With(zap.Uint64("session", id), zap.String("transport", transport)),
	}
	s.state.Store(int32(packet.StateHandshake))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a frame body for sending. Nothing reaches the socket until
// FlushOutput runs in the output phase. Loop goroutine only.
func (s *Session) Send(body []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, body)
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop.
// A session whose OutQueue is full is disconnected.
func (s *Session) FlushOutput() {
	for _, body := range s.outBuf {
		select {
		case s.OutQueue <- body:
		default:
			s.log.Warn("output queue full, dropping slow client")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

// Pending reports how many frames are buffered but not yet flushed.
func (s *Session) Pending() int {
	return len(s.outBuf)
}

// Close shuts the session down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		if s.readTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		body, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		if s.pktPerSec > 0 {
			now := time.Now().Unix()
			if now != s.pktResetAt {
				s.pktCount = 0
				s.pktResetAt = now
			}
			s.pktCount++
			if s.pktCount > s.pktPerSec {
				s.log.Warn("packet rate exceeded, disconnecting", zap.Int("pps", s.pktCount))
				return
			}
		}

		// Block until InQueue has space or the session closes. Walk
		// requests must not be dropped silently.
		select {
		case s.InQueue <- body:
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case body := <-s.OutQueue:
			if !s.writeOne(body) {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOne(body []byte) bool {
	if len(body) >= 2 {
		s.log.Debug("TX",
			zap.Uint16("header", binary.BigEndian.Uint16(body)),
			zap.Int("len", len(body)),
		)
	}
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := WriteFrame(s.conn, body); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
