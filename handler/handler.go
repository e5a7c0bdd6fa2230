package handler

import (
	"context"
	"fmt"

	"TianHe-LiveSim/model"
	"TianHe-LiveSim/protocol"
	"TianHe-LiveSim/refresh"
	"TianHe-LiveSim/utils"

	"github.com/tidwall/gjson"
)

// Session 指令作用的房间
type Session interface {
	Say(text string) (model.DanmakuMessage, error)
	SendGift(giftID string) (*model.GiftEvent, int64, error)
	React(glyph string) (model.FloatingReaction, error)
	Refresh(ctx context.Context) error
	RefreshStatus() refresh.Status
}

type MessageHandler interface {
	Handle(ctx context.Context, data gjson.Result) (interface{}, error)
}

type HandlerFunc func(ctx context.Context, data gjson.Result) (interface{}, error)

func (f HandlerFunc) Handle(ctx context.Context, data gjson.Result) (interface{}, error) {
	return f(ctx, data)
}

// Dispatcher 按指令分发到对应处理器
type Dispatcher struct {
	roomID   string
	handlers map[string]MessageHandler
}

func NewDispatcher(roomID string, session Session) *Dispatcher {
	d := &Dispatcher{
		roomID:   roomID,
		handlers: make(map[string]MessageHandler),
	}
	d.handlers[protocol.CmdDanmu] = NewDanmuHandler(session)
	d.handlers[protocol.CmdGift] = NewGiftHandler(session)
	d.handlers[protocol.CmdReact] = NewReactHandler(session)
	d.handlers[protocol.CmdRefresh] = NewRefreshHandler(roomID, session)
	d.handlers[protocol.CmdPing] = HandlerFunc(func(context.Context, gjson.Result) (interface{}, error) {
		return "pong", nil
	})
	return d
}

// Register 覆盖或新增指令处理器
func (d *Dispatcher) Register(cmd string, h MessageHandler) {
	d.handlers[cmd] = h
}

// Dispatch 处理一条原始指令并生成回执
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) protocol.Reply {
	cmd, data, err := protocol.ParseMessage(raw)
	if err != nil {
		return protocol.Reply{OK: false, Error: err.Error()}
	}

	h, ok := d.handlers[cmd]
	if !ok {
		return protocol.Reply{Cmd: cmd, OK: false, Error: fmt.Sprintf("unknown cmd %s", cmd)}
	}

	payload, err := h.Handle(ctx, data)
	if err != nil {
		utils.Logger.Debugf("房间 %s 指令 %s 处理失败: %v", d.roomID, cmd, err)
		return protocol.Reply{Cmd: cmd, OK: false, Error: err.Error(), Payload: payload}
	}
	return protocol.Reply{Cmd: cmd, OK: true, Payload: payload}
}
