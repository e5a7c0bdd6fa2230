package handler

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"
)

type DanmuHandler struct {
	session Session
}

func NewDanmuHandler(session Session) *DanmuHandler {
	return &DanmuHandler{session: session}
}

// Handle {"text": "..."}，兼容 msg 字段
func (h *DanmuHandler) Handle(ctx context.Context, data gjson.Result) (interface{}, error) {
	text := data.Get("text")
	if !text.Exists() {
		text = data.Get("msg")
	}
	if text.Type != gjson.String {
		return nil, errors.New("danmaku text is required")
	}

	msg, err := h.session.Say(text.String())
	if err != nil {
		return nil, err
	}
	return msg, nil
}
