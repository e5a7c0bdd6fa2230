package handler

import (
	"context"
	"errors"

	"TianHe-LiveSim/model"
	"TianHe-LiveSim/refresh"
	"TianHe-LiveSim/utils"

	"github.com/tidwall/gjson"
)

type RefreshHandler struct {
	roomID  string
	session Session
}

func NewRefreshHandler(roomID string, session Session) *RefreshHandler {
	return &RefreshHandler{roomID: roomID, session: session}
}

// Handle 立即回执，刷新在后台进行，进度通过状态推送
func (h *RefreshHandler) Handle(ctx context.Context, data gjson.Result) (interface{}, error) {
	status := h.session.RefreshStatus()
	if status.State != refresh.Idle {
		return status, model.ErrRefreshInFlight
	}

	// 连接断开不影响进行中的刷新，离开房间时由状态机丢弃结果
	refreshCtx := context.WithoutCancel(ctx)
	go func() {
		err := h.session.Refresh(refreshCtx)
		if err != nil && !errors.Is(err, model.ErrRefreshInFlight) && !errors.Is(err, model.ErrRoomClosed) {
			utils.Logger.Warnf("房间 %s 刷新未完成: %v", h.roomID, err)
		}
	}()
	return status, nil
}
