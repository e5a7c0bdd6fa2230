package protocol

import (
	"errors"

	"github.com/tidwall/gjson"
)

// 观众指令
const (
	CmdDanmu   = "DANMU_MSG" // 发弹幕
	CmdGift    = "SEND_GIFT" // 送礼
	CmdReact   = "REACT"     // 点赞表情
	CmdRefresh = "REFRESH"   // 刷新场景
	CmdPing    = "PING"      // 心跳
)

// ParseMessage 解析观众指令
func ParseMessage(data []byte) (string, gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return "", gjson.Result{}, errors.New("message is not valid json")
	}

	result := gjson.ParseBytes(data)

	cmd := result.Get("cmd").String()
	if cmd == "" {
		return "", gjson.Result{}, errors.New("message missing cmd field")
	}

	return cmd, result.Get("data"), nil
}

// IsValidMessage 检查是否为有效指令
func IsValidMessage(cmd string) bool {
	validCmds := map[string]bool{
		CmdDanmu:   true,
		CmdGift:    true,
		CmdReact:   true,
		CmdRefresh: true,
		CmdPing:    true,
	}

	return validCmds[cmd]
}

// 指令处理结果
type Reply struct {
	Cmd     string      `json:"cmd"`
	OK      bool        `json:"ok"`
	Error   string      `json:"error,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}
