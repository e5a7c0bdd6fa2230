package server

import (
	"sync"
	"sync/atomic"

	"TianHe-LiveSim/model"
	"TianHe-LiveSim/protocol"
	"TianHe-LiveSim/refresh"
	"TianHe-LiveSim/room"
	"TianHe-LiveSim/utils"
)

// 刷新推送
type RefreshFrame struct {
	Status    *refresh.Status `json:"status,omitempty"`
	Outcome   string          `json:"outcome,omitempty"`
	Narrative []string        `json:"narrative,omitempty"`
}

// Hub 单个房间的所有预览连接
type Hub struct {
	room    *room.Room
	clients map[*Client]struct{}
	mutex   sync.RWMutex
	seq     atomic.Int32
	closed  bool
}

// newHub 订阅房间事件，一个房间只订阅一次
func newHub(r *room.Room) *Hub {
	h := &Hub{
		room:    r,
		clients: make(map[*Client]struct{}),
	}

	r.Feed().OnAppend(func(msg model.DanmakuMessage) {
		h.broadcastJSON(protocol.OpFeed, msg)
	})
	r.Economy().OnGift(func(ev model.GiftEvent) {
		h.broadcastJSON(protocol.OpGift, ev)
	})
	r.Reactions().OnSpawn(func(reaction model.FloatingReaction) {
		h.broadcastJSON(protocol.OpReaction, reaction)
	})
	r.Viewers().OnChange(func(count int) {
		h.broadcast(protocol.NewHeartbeatReply(h.nextSeq(), count))
	})
	// 状态回调在状态机持锁时执行，这里只做非阻塞投递
	r.Machine().OnChange(func(status refresh.Status) {
		h.broadcastJSON(protocol.OpRefresh, RefreshFrame{Status: &status})
	})
	r.Machine().OnOutcome(func(outcome string) {
		frame := RefreshFrame{Outcome: outcome}
		if outcome == refresh.OutcomeMerged {
			frame.Narrative = r.Machine().Narrative()
		}
		h.broadcastJSON(protocol.OpRefresh, frame)
	})
	return h
}

func (h *Hub) nextSeq() int32 {
	return h.seq.Add(1)
}

// add 先下发进房快照再加入广播，快照在锁外生成，避免与状态机回调互锁
func (h *Hub) add(c *Client) error {
	packet, err := protocol.NewJSONPacket(protocol.OpSnapshot, h.nextSeq(), h.room.Snapshot())
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return model.ErrRoomClosed
	}
	c.enqueue(packet.Encode())
	h.clients[c] = struct{}{}
	return nil
}

func (h *Hub) remove(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, c)
}

func (h *Hub) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcastJSON(op int32, v interface{}) {
	packet, err := protocol.NewJSONPacket(op, h.nextSeq(), v)
	if err != nil {
		utils.Logger.Errorf("房间 %s 编码推送失败: %v", h.room.Identity().ID, err)
		return
	}
	h.broadcast(packet)
}

func (h *Hub) broadcast(packet *protocol.Packet) {
	data := packet.Encode()

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.closed {
		return
	}
	for c := range h.clients {
		c.enqueue(data)
	}
}

// close 房间离开后断开所有连接
func (h *Hub) close() {
	h.mutex.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mutex.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
