package net

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// wsListener serves the same framed protocol over binary WebSocket
// messages, for browser clients.
type wsListener struct {
	http *http.Server
	ln   net.Listener
}

// ListenWebSocket starts accepting WebSocket clients on addr. Sessions
// created here arrive on the same NewSessions channel as TCP ones.
func (s *Server) ListenWebSocket(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/", s)
	s.ws = &wsListener{
		http: &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		ln:   ln,
	}
	go func() {
		if err := s.ws.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("websocket listener stopped", zap.Error(err))
		}
	}()
	s.log.Info("websocket listener started", zap.String("addr", ln.Addr().String()))
	return nil
}

// ServeHTTP upgrades the request and blocks until the session ends, since
// the wrapped connection lives only as long as the request context.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.Debug("websocket accept failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(MaxFrameSize + 4)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	nc := websocket.NetConn(ctx, conn, websocket.MessageBinary)
	sess := s.adopt(wsConn{Conn: nc, remote: r.RemoteAddr}, "ws")
	<-sess.Done()
}

func (w *wsListener) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = w.http.Shutdown(ctx)
}

// wsConn reports the HTTP peer address; NetConn's own RemoteAddr is a
// placeholder.
type wsConn struct {
	net.Conn
	remote string
}

func (c wsConn) RemoteAddr() net.Addr { return wsAddr(c.remote) }

type wsAddr string

func (a wsAddr) Network() string { return "websocket" }
func (a wsAddr) String() string  { return string(a) }
