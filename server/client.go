package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"TianHe-LiveSim/handler"
	"TianHe-LiveSim/metrics"
	"TianHe-LiveSim/protocol"
	"TianHe-LiveSim/utils"

	"github.com/gorilla/websocket"
)

// Client 一个预览连接
type Client struct {
	roomID     string
	conn       *websocket.Conn
	hub        *Hub
	dispatcher *handler.Dispatcher
	send       chan []byte
	done       chan struct{}
	once       sync.Once
	wg         sync.WaitGroup

	pingInterval time.Duration
	writeWait    time.Duration
}

func newClient(conn *websocket.Conn, hub *Hub, dispatcher *handler.Dispatcher, opts Options) *Client {
	return &Client{
		roomID:       hub.room.Identity().ID,
		conn:         conn,
		hub:          hub,
		dispatcher:   dispatcher,
		send:         make(chan []byte, opts.SendQueue),
		done:         make(chan struct{}),
		pingInterval: opts.PingInterval,
		writeWait:    opts.WriteWait,
	}
}

// enqueue 发送队列满时丢弃
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		utils.Logger.Warnf("房间 %s 发送队列已满，丢弃消息", c.roomID)
		return false
	}
}

func (c *Client) serve(ctx context.Context) {
	metrics.PreviewConnected()
	c.wg.Add(2)
	go c.writeLoop()
	go c.readLoop(ctx)
	c.wg.Wait()
	metrics.PreviewDisconnected()
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readLoop 读取循环
func (c *Client) readLoop(ctx context.Context) {
	defer c.wg.Done()
	defer c.Close()
	defer c.hub.remove(c)

	c.conn.SetReadLimit(protocol.MaxPacketLength)
	readWait := c.pingInterval * 2
	c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !isConnectionClosed(err) {
				utils.Logger.Errorf("房间 %s 读取消息失败: %v", c.roomID, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readWait))

		switch messageType {
		case websocket.TextMessage:
			c.reply(ctx, data)
		case websocket.BinaryMessage:
			c.handleBinaryMessage(ctx, data)
		}
	}
}

func (c *Client) handleBinaryMessage(ctx context.Context, data []byte) {
	packet, err := protocol.DecodePacket(data)
	if err != nil {
		utils.Logger.Errorf("房间 %s 解析数据包失败: %v", c.roomID, err)
		return
	}

	switch packet.Operation {
	case protocol.OpHeartbeat:
		// 心跳回应，包含在线人数
		c.enqueue(protocol.NewHeartbeatReply(packet.SequenceID, c.hub.room.Viewers().Count()).Encode())
	default:
		c.reply(ctx, packet.Body)
	}
}

func (c *Client) reply(ctx context.Context, data []byte) {
	reply := c.dispatcher.Dispatch(ctx, data)
	packet, err := protocol.NewJSONPacket(protocol.OpReply, c.hub.nextSeq(), reply)
	if err != nil {
		utils.Logger.Errorf("房间 %s 编码回执失败: %v", c.roomID, err)
		return
	}
	c.enqueue(packet.Encode())
}

// writeLoop 发送循环
func (c *Client) writeLoop() {
	defer c.wg.Done()
	defer c.Close()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				if !isConnectionClosed(err) {
					utils.Logger.Errorf("房间 %s 发送数据失败: %v", c.roomID, err)
				}
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// isConnectionClosed 检查是否为连接关闭错误
func isConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return true
	}
	return errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent)
}
