package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"TianHe-LiveSim/model"
	"TianHe-LiveSim/phrase"
)

var offlineBeats = []string{
	"主播停下来看了看弹幕，笑着和大家打了个招呼。",
	"画面切到了新的场景，主播开始介绍接下来的安排。",
	"主播喝了口水，认真回应了刚才的提问。",
	"直播间的气氛热了起来，主播决定加一个小环节。",
}

// Offline 不依赖外部服务，用兜底弹幕拼出结构化回复
func Offline(picker *phrase.Picker) Generator {
	return GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		env := Envelope{Narrative: offlineBeats[picker.Intn(len(offlineBeats))]}
		if n := len(req.Engagement.RecentGifts); n > 0 {
			env.Narrative += fmt.Sprintf("主播感谢了%s。", req.Engagement.RecentGifts[n-1].Name)
		}

		pool := phrase.Fallback(req.Category)
		count := 8
		if req.MaxChatEntries > 0 && req.MaxChatEntries < count {
			count = req.MaxChatEntries
		}
		for i := 0; i < count; i++ {
			env.ChatEntries = append(env.ChatEntries, model.ChatEntry{
				Author: picker.Speaker().Name,
				Text:   pool[picker.Intn(len(pool))],
			})
		}

		data, err := json.Marshal(env)
		if err != nil {
			return "", err
		}
		// 模拟模型在结构前后夹带说明文字
		return "好的，以下是新的直播内容：\n" + string(data), nil
	})
}
