package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vsaulue/Gustave-sub000/internal/protocol"
	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
)

const requestTimeout = 10 * time.Second

type Server struct {
	rt  *world.Runtime
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(rt *world.Runtime, logger *log.Logger) *Server {
	s := &Server{
		rt:  rt,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, ok := s.handshake(conn)
		if !ok {
			return
		}
		s.logf("session %s: connected from %s", sessionID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		out := make(chan []byte, 64)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			resp := s.dispatch(ctx, msg)
			b, err := json.Marshal(resp)
			if err != nil {
				b, _ = json.Marshal(protocol.NewError("", protocol.ErrInternal, err.Error()))
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}
		s.logf("session %s: closed", sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", false
	}

	sessionID = uuid.NewString()
	cfg := s.rt.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldParams: protocol.WorldParams{
			BlockSize:     [3]float64{float64(cfg.BlockSize.X), float64(cfg.BlockSize.Y), float64(cfg.BlockSize.Z)},
			Gravity:       cfg.Solver.G.Array(),
			Precision:     cfg.Solver.Precision,
			MaxIterations: cfg.Solver.MaxIterations,
			ClusterWidth:  cfg.Solver.ClusterWidth,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", false
	}
	return sessionID, true
}

// dispatch decodes one client message and returns the reply to send.
func (s *Server) dispatch(ctx context.Context, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "malformed json")
	}
	if base.ProtocolVersion != protocol.Version {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "bad protocol_version")
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch base.Type {
	case protocol.TypeEdit:
		var m protocol.EditMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError("", protocol.ErrBadRequest, err.Error())
		}
		tx, err := m.Transaction()
		if err != nil {
			return errorReply(m.ReqID, err)
		}
		res, err := s.rt.Edit(ctx, tx)
		if err != nil {
			return errorReply(m.ReqID, err)
		}
		return protocol.EditResultMsg{
			Type:            protocol.TypeEditResult,
			ProtocolVersion: protocol.Version,
			ReqID:           m.ReqID,
			New:             idList(res.NewIDs()),
			Deleted:         idList(res.DeletedIDs()),
		}

	case protocol.TypeQueryBlock:
		var m protocol.QueryBlockMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError("", protocol.ErrBadRequest, err.Error())
		}
		d, err := s.rt.QueryBlock(ctx, grid.FromArray(m.Pos))
		if err != nil {
			return errorReply(m.ReqID, err)
		}
		return blockMsg(m.ReqID, d)

	case protocol.TypeQueryStructure:
		var m protocol.QueryStructureMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return protocol.NewError("", protocol.ErrBadRequest, err.Error())
		}
		d, err := s.rt.QueryStructure(ctx, scene.StructureID(m.ID))
		if err != nil {
			return errorReply(m.ReqID, err)
		}
		return structureMsg(m.ReqID, d)
	}
	return protocol.NewError("", protocol.ErrProtoBadRequest, "unknown type "+base.Type)
}

func errorReply(reqID string, err error) protocol.ErrorMsg {
	return protocol.NewError(reqID, codeFor(err), err.Error())
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, scene.ErrInvalidTransaction):
		return protocol.ErrInvalidTx
	case errors.Is(err, world.ErrStaleStructure):
		return protocol.ErrStale
	case errors.Is(err, scene.ErrNoBlock), errors.Is(err, world.ErrNoStructure):
		return protocol.ErrNotFound
	}
	return protocol.ErrInternal
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
