package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"isocity.dev/internal/protocol"
	"isocity.dev/internal/sim/world"
	"isocity.dev/internal/sim/world/logic/rates"
)

// Server speaks the city protocol over websocket: HELLO/WELCOME, then
// COMMAND/COMMAND_RESULT, plus per-tick STATS for sessions that ask for them.
type Server struct {
	world *world.World
	log   *log.Logger
	opts  Options

	upgrader websocket.Upgrader
}

type Options struct {
	TuningDigest string
	// Per-session command budget; zero disables limiting.
	CommandWindowTicks uint64
	CommandMax         int
}

func NewServer(w *world.World, opts Options, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, hello, ok := s.handshake(conn)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// All writes after WELCOME go through out.
		out := make(chan []byte, 32)
		var stats chan []byte
		if hello.WantStats {
			stats = make(chan []byte, 1)
			s.world.Subscribe(sessionID, stats)
			defer s.world.Unsubscribe(sessionID)
		}

		// Writer goroutine.
		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-out:
				case b = <-stats:
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		// Reader loop.
		var window rates.Window
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if ok, cd := window.Allow(s.world.CurrentTick(), s.opts.CommandWindowTicks, s.opts.CommandMax); !ok {
				s.sendError(ctx, out, protocol.ErrRateLimit, fmt.Sprintf("too many commands; retry in %d ticks", cd))
				continue
			}
			s.handleMessage(ctx, out, msg)
		}
	}
}

func (s *Server) handleMessage(ctx context.Context, out chan<- []byte, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.sendError(ctx, out, protocol.ErrProtoBadRequest, "malformed json")
		return
	}
	if base.Type != protocol.TypeCommand {
		s.sendError(ctx, out, protocol.ErrProtoBadRequest, "unexpected message type "+base.Type)
		return
	}
	if base.ProtocolVersion != protocol.Version {
		s.sendError(ctx, out, protocol.ErrProtoBadRequest, "bad protocol_version")
		return
	}
	if err := protocol.Validate(protocol.TypeCommand, msg); err != nil {
		s.sendError(ctx, out, protocol.ErrProtoBadRequest, err.Error())
		return
	}
	var cmd protocol.CommandMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		s.sendError(ctx, out, protocol.ErrProtoBadRequest, err.Error())
		return
	}

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := s.world.Submit(sctx, cmd)
	if err != nil {
		s.sendError(ctx, out, protocol.ErrWorldBusy, err.Error())
		return
	}
	s.send(ctx, out, res.Msg(cmd.ID))
}

func (s *Server) sendError(ctx context.Context, out chan<- []byte, code, message string) {
	s.send(ctx, out, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}

func (s *Server) send(ctx context.Context, out chan<- []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		if s.log != nil {
			s.log.Printf("ws marshal: %v", err)
		}
		return
	}
	select {
	case out <- b:
	case <-ctx.Done():
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, hello protocol.HelloMsg, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", hello, false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", hello, false
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		closeWith(conn, "invalid HELLO")
		return "", hello, false
	}
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", hello, false
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", hello, false
	}

	sessionID = "s_" + uuid.NewString()
	cfg := s.world.Config()
	cats := s.world.Catalogs()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldID:         s.world.ID(),
		Tick:            s.world.CurrentTick(),
		WorldParams: protocol.WorldParams{
			TickRateHz:    cfg.TickRateHz,
			Size:          cfg.Size,
			Seed:          cfg.Seed,
			TicksPerMonth: cfg.TicksPerMonth,
		},
		Catalogs: protocol.CatalogDigests{
			BuildingsDigest: cats.Buildings.Digest,
			BuildingCount:   len(cats.Buildings.IDs),
			TuningDigest:    s.opts.TuningDigest,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", hello, false
	}
	if s.log != nil {
		s.log.Printf("session %s joined (client=%s stats=%v)", sessionID, hello.ClientName, hello.WantStats)
	}
	return sessionID, hello, true
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
