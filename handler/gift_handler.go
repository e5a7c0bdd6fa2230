package handler

import (
	"context"
	"errors"

	"TianHe-LiveSim/model"

	"github.com/tidwall/gjson"
)

// 送礼回执
type GiftResult struct {
	Event   *model.GiftEvent `json:"event,omitempty"`
	Balance int64            `json:"balance"`
}

type GiftHandler struct {
	session Session
}

func NewGiftHandler(session Session) *GiftHandler {
	return &GiftHandler{session: session}
}

// Handle {"gift_id": "rocket"}，余额不足时回执中带当前余额
func (h *GiftHandler) Handle(ctx context.Context, data gjson.Result) (interface{}, error) {
	giftID := data.Get("gift_id").String()
	if giftID == "" {
		giftID = data.Get("giftId").String()
	}
	if giftID == "" {
		return nil, errors.New("gift_id is required")
	}

	event, balance, err := h.session.SendGift(giftID)
	return GiftResult{Event: event, Balance: balance}, err
}

type ReactHandler struct {
	session Session
}

func NewReactHandler(session Session) *ReactHandler {
	return &ReactHandler{session: session}
}

// Handle {"glyph": "❤"}，为空时随机
func (h *ReactHandler) Handle(ctx context.Context, data gjson.Result) (interface{}, error) {
	reaction, err := h.session.React(data.Get("glyph").String())
	if err != nil {
		return nil, err
	}
	return reaction, nil
}
