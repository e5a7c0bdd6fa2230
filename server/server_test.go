package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TianHe-LiveSim/collab"
	"TianHe-LiveSim/config"
	"TianHe-LiveSim/generation"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/protocol"
	"TianHe-LiveSim/room"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietDeps() room.Deps {
	cfg := config.NewConfig()
	slow := config.Interval{Min: time.Hour, Max: time.Hour}
	cfg.Scheduler.Entrant = slow
	cfg.Scheduler.Chat = slow
	cfg.Scheduler.Drift = slow
	cfg.Scheduler.Reaction = slow
	cfg.Scheduler.Gift = slow
	cfg.Refresh.ProgressResetDelay = 0
	cfg.Wallet.InitialBalance = 100
	return room.Deps{
		Config:    cfg,
		Persona:   collab.StaticPersona("小明"),
		Generator: generation.Static(generation.Envelope{Narrative: "新的场景"}),
		Seed:      1,
	}
}

type fixture struct {
	manager *room.Manager
	room    *room.Room
	http    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	m := room.NewManager(context.Background(), quietDeps())
	s := New(m, Options{PingInterval: time.Second, WriteWait: time.Second, SendQueue: 64})
	r, err := m.Mount(model.EntryParams{RoomID: "100", Mode: model.ModeHost})
	require.NoError(t, err)

	f := &fixture{manager: m, room: r, http: httptest.NewServer(s.Handler())}
	t.Cleanup(func() {
		f.http.Close()
		m.Stop()
	})
	return f
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readOp 读取直到出现指定操作类型的数据包
func readOp(t *testing.T, conn *websocket.Conn, op int32) *protocol.Packet {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		packet, err := protocol.DecodePacket(data)
		require.NoError(t, err)
		if packet.Operation == op {
			return packet
		}
	}
}

func TestSnapshotOnConnect(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "?room=100")

	packet := readOp(t, conn, protocol.OpSnapshot)
	var snap room.Snapshot
	require.NoError(t, json.Unmarshal(packet.Body, &snap))
	assert.Equal(t, "100", snap.Identity.ID)
	assert.Equal(t, int64(100), snap.Balance)
	require.NotEmpty(t, snap.Feed)
	assert.Equal(t, model.KindSystem, snap.Feed[0].Kind)
}

func TestSingleRoomIsDefault(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")
	readOp(t, conn, protocol.OpSnapshot)
}

func TestUnknownRoomRejected(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.http.URL + "/ws?room=404")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatCommandBroadcastsAndReplies(t *testing.T) {
	f := newFixture(t)
	sender := f.dial(t, "?room=100")
	watcher := f.dial(t, "?room=100")
	readOp(t, sender, protocol.OpSnapshot)
	readOp(t, watcher, protocol.OpSnapshot)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"cmd":"DANMU_MSG","data":{"text":"来了"}}`)))

	var reply protocol.Reply
	require.NoError(t, json.Unmarshal(readOp(t, sender, protocol.OpReply).Body, &reply))
	assert.True(t, reply.OK)
	assert.Equal(t, protocol.CmdDanmu, reply.Cmd)

	var msg model.DanmakuMessage
	require.NoError(t, json.Unmarshal(readOp(t, watcher, protocol.OpFeed).Body, &msg))
	assert.Equal(t, "小明", msg.Author)
	assert.Equal(t, "来了", msg.Text)
}

func TestGiftInsufficientFundsReply(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "?room=100")
	readOp(t, conn, protocol.OpSnapshot)

	body := []byte(`{"cmd":"SEND_GIFT","data":{"gift_id":"rocket"}}`)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, protocol.NewPacket(protocol.OpReply, 1, body).Encode()))

	var reply protocol.Reply
	require.NoError(t, json.Unmarshal(readOp(t, conn, protocol.OpReply).Body, &reply))
	assert.False(t, reply.OK)
	assert.Equal(t, model.ErrInsufficientFunds.Error(), reply.Error)
	assert.Equal(t, int64(100), f.room.Snapshot().Balance)
}

func TestHeartbeatReportsViewers(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "?room=100")
	readOp(t, conn, protocol.OpSnapshot)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, protocol.NewPacket(protocol.OpHeartbeat, 9, nil).Encode()))
	packet := readOp(t, conn, protocol.OpHeartbeatReply)
	count, err := protocol.OnlineCount(packet)
	require.NoError(t, err)
	assert.Equal(t, f.room.Viewers().Count(), count)

	f.room.Viewers().Nudge(10)
	packet = readOp(t, conn, protocol.OpHeartbeatReply)
	count, err = protocol.OnlineCount(packet)
	require.NoError(t, err)
	assert.Equal(t, f.room.Viewers().Count(), count)
}

func TestRefreshProgressIsPushed(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "?room=100")
	readOp(t, conn, protocol.OpSnapshot)

	require.NoError(t, f.room.Refresh(context.Background()))

	for {
		var frame RefreshFrame
		require.NoError(t, json.Unmarshal(readOp(t, conn, protocol.OpRefresh).Body, &frame))
		if frame.Outcome != "" {
			assert.Equal(t, "merged", frame.Outcome)
			assert.Equal(t, []string{"新的场景"}, frame.Narrative)
			return
		}
	}
}

func TestUnmountClosesConnections(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "?room=100")
	readOp(t, conn, protocol.OpSnapshot)

	require.NoError(t, f.manager.Unmount("100"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	resp, err := http.Get(f.http.URL + "/ws?room=100")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoomsAndMetricsEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/rooms")
	require.NoError(t, err)
	var snaps []room.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snaps))
	resp.Body.Close()
	require.Len(t, snaps, 1)
	assert.Equal(t, "100", snaps[0].Identity.ID)

	resp, err = http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
