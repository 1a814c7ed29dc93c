package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsaulue/Gustave-sub000/internal/protocol"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
	"github.com/vsaulue/Gustave-sub000/internal/solver"
)

var concrete20 = model.PressureStress{Compression: 20e6, Shear: 14e6, Tensile: 2e6}

func startServer(t *testing.T) *websocket.Conn {
	t.Helper()
	w, err := world.New(world.Config{
		BlockSize: scene.BlockSize{X: 1, Y: 1, Z: 1},
		Solver:    solver.Config{G: units.Vec(0, -10, 0), Precision: 0.001},
	})
	require.NoError(t, err)
	rt := world.NewRuntime(w, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = rt.Run(ctx) }()

	srv := httptest.NewServer(NewServer(rt, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func recv[T any](t *testing.T, conn *websocket.Conn, wantType string) T {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	base, err := protocol.DecodeBase(b)
	require.NoError(t, err)
	require.Equal(t, wantType, base.Type, "payload: %s", b)
	var v T
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "test"})
	return recv[protocol.WelcomeMsg](t, conn, protocol.TypeWelcome)
}

func TestHandshake(t *testing.T) {
	conn := startServer(t)
	w := hello(t, conn)
	assert.Len(t, w.SessionID, 36)
	assert.Equal(t, [3]float64{0, -10, 0}, w.WorldParams.Gravity)
	assert.Equal(t, solver.DefaultMaxIterations, w.WorldParams.MaxIterations)
}

func TestHandshakeRejectsBadVersion(t *testing.T) {
	conn := startServer(t)
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: "0.1"})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, websocket.ClosePolicyViolation, ce.Code)
}

func TestEditAndQuery(t *testing.T) {
	conn := startServer(t)
	hello(t, conn)

	send(t, conn, protocol.EditMsg{
		Type:            protocol.TypeEdit,
		ProtocolVersion: protocol.Version,
		ReqID:           "e1",
		Add: []protocol.BlockSpec{
			{Pos: [3]int64{0, 0, 0}, Mass: 3000, MaxStress: concrete20, Foundation: true},
			{Pos: [3]int64{0, 1, 0}, Mass: 3000, MaxStress: concrete20},
		},
	})
	res := recv[protocol.EditResultMsg](t, conn, protocol.TypeEditResult)
	assert.Equal(t, "e1", res.ReqID)
	assert.Equal(t, []uint32{1}, res.New)
	assert.Empty(t, res.Deleted)

	send(t, conn, protocol.QueryBlockMsg{Type: protocol.TypeQueryBlock, ProtocolVersion: protocol.Version, ReqID: "b1", Pos: [3]int64{0, 1, 0}})
	b := recv[protocol.BlockMsg](t, conn, protocol.TypeBlock)
	assert.Equal(t, uint32(1), b.Structure)
	assert.Equal(t, "SOLVED", b.Status)
	require.NotNil(t, b.StressRatio)
	assert.InEpsilon(t, 30000/20e6, b.StressRatio.Compression, 1e-3)
	require.Len(t, b.Contacts, 1)
	assert.Equal(t, "-y", b.Contacts[0].Dir)
	assert.InEpsilon(t, 30000, b.Contacts[0].Force[1], 1e-3)

	send(t, conn, protocol.QueryStructureMsg{Type: protocol.TypeQueryStructure, ProtocolVersion: protocol.Version, ReqID: "s1", ID: 1})
	s := recv[protocol.StructureMsg](t, conn, protocol.TypeStructure)
	assert.Equal(t, "SOLVED", s.Status)
	assert.Equal(t, "CONVERGED", s.SolverStatus)
	assert.Equal(t, [][3]int64{{0, 1, 0}}, s.Blocks)

	// Replacing the block invalidates structure 1.
	send(t, conn, protocol.EditMsg{
		Type:            protocol.TypeEdit,
		ProtocolVersion: protocol.Version,
		ReqID:           "e2",
		Add:             []protocol.BlockSpec{{Pos: [3]int64{0, 2, 0}, Mass: 3000, MaxStress: concrete20}},
	})
	res = recv[protocol.EditResultMsg](t, conn, protocol.TypeEditResult)
	assert.Equal(t, []uint32{2}, res.New)
	assert.Equal(t, []uint32{1}, res.Deleted)

	send(t, conn, protocol.QueryStructureMsg{Type: protocol.TypeQueryStructure, ProtocolVersion: protocol.Version, ReqID: "s2", ID: 1})
	e := recv[protocol.ErrorMsg](t, conn, protocol.TypeError)
	assert.Equal(t, "s2", e.ReqID)
	assert.Equal(t, protocol.ErrStale, e.Code)
}

func TestErrors(t *testing.T) {
	conn := startServer(t)
	hello(t, conn)

	send(t, conn, protocol.EditMsg{
		Type:            protocol.TypeEdit,
		ProtocolVersion: protocol.Version,
		ReqID:           "e1",
		Remove:          [][3]int64{{5, 5, 5}},
	})
	e := recv[protocol.ErrorMsg](t, conn, protocol.TypeError)
	assert.Equal(t, protocol.ErrInvalidTx, e.Code)
	assert.Equal(t, "e1", e.ReqID)

	send(t, conn, protocol.QueryBlockMsg{Type: protocol.TypeQueryBlock, ProtocolVersion: protocol.Version, ReqID: "b1", Pos: [3]int64{9, 9, 9}})
	e = recv[protocol.ErrorMsg](t, conn, protocol.TypeError)
	assert.Equal(t, protocol.ErrNotFound, e.Code)

	send(t, conn, protocol.QueryStructureMsg{Type: protocol.TypeQueryStructure, ProtocolVersion: protocol.Version, ReqID: "s1", ID: 42})
	e = recv[protocol.ErrorMsg](t, conn, protocol.TypeError)
	assert.Equal(t, protocol.ErrNotFound, e.Code)

	send(t, conn, map[string]string{"type": "DANCE", "protocol_version": protocol.Version})
	e = recv[protocol.ErrorMsg](t, conn, protocol.TypeError)
	assert.Equal(t, protocol.ErrProtoBadRequest, e.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	e = recv[protocol.ErrorMsg](t, conn, protocol.TypeError)
	assert.Equal(t, protocol.ErrProtoBadRequest, e.Code)
	assert.True(t, protocol.IsKnownCode(e.Code))
}
