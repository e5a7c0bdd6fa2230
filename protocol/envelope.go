package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"TianHe-LiveSim/model"

	"github.com/tidwall/gjson"
)

// 生成结果类型
type ResultKind int

const (
	Parsed ResultKind = iota
	Malformed
	TransportError
)

func (k ResultKind) String() string {
	switch k {
	case Parsed:
		return "parsed"
	case Malformed:
		return "malformed"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// 回复文本上限
const maxResponseBytes = 64 << 10

var chatEntryKeys = []string{"chatEntries", "chat_entries", "danmaku"}

// Result 生成协作方的解析结果
type Result struct {
	Kind        ResultKind
	Narrative   string
	ChatEntries []model.ChatEntry
	Err         error
}

func TransportFailure(err error) Result {
	return Result{Kind: TransportError, Err: err}
}

// ExtractEnvelope 在可能夹杂说明文字的回复中定位 {narrative, chatEntries} 结构
func ExtractEnvelope(raw string) Result {
	if len(raw) > maxResponseBytes {
		raw = raw[:maxResponseBytes]
	}

	lastErr := fmt.Errorf("no json object found")
	for offset := 0; offset < len(raw); {
		i := strings.IndexByte(raw[offset:], '{')
		if i < 0 {
			break
		}
		start := offset + i
		offset = start + 1

		var obj json.RawMessage
		if err := json.NewDecoder(strings.NewReader(raw[start:])).Decode(&obj); err != nil {
			lastErr = err
			continue
		}

		result, err := envelopeFrom(gjson.ParseBytes(obj))
		if err != nil {
			lastErr = err
			continue
		}
		return result
	}

	return Result{Kind: Malformed, Err: lastErr}
}

func envelopeFrom(obj gjson.Result) (Result, error) {
	if !obj.IsObject() {
		return Result{}, fmt.Errorf("payload is not an object")
	}

	narrative := obj.Get("narrative")
	if narrative.Type != gjson.String {
		return Result{}, fmt.Errorf("narrative missing or not a string")
	}

	var entries gjson.Result
	for _, key := range chatEntryKeys {
		if v := obj.Get(key); v.Exists() {
			entries = v
			break
		}
	}
	if !entries.IsArray() {
		return Result{}, fmt.Errorf("chatEntries missing or not an array")
	}

	result := Result{Kind: Parsed, Narrative: narrative.String(), ChatEntries: []model.ChatEntry{}}
	entries.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		text := item.Get("text")
		if text.Type != gjson.String {
			return true
		}
		result.ChatEntries = append(result.ChatEntries, model.ChatEntry{
			Author: item.Get("author").String(),
			Text:   text.String(),
		})
		return true
	})
	return result, nil
}
