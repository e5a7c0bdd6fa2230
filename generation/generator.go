package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"TianHe-LiveSim/model"
)

// Request 生成请求上下文
type Request struct {
	Category           string                   `json:"category"`
	Persona            string                   `json:"persona"`
	PriorNarrativeTail string                   `json:"prior_narrative_tail"`
	Engagement         model.EngagementSnapshot `json:"engagement"`
	MaxChatEntries     int                      `json:"max_chat_entries"`
}

// SystemContext 分类标签与主播人设
func (r Request) SystemContext() string {
	return fmt.Sprintf("直播分类：%s；主播：%s", r.Category, r.Persona)
}

// Generator 文本生成协作方，返回未经校验的原始文本
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

const systemPrompt = `你在为一个模拟直播间撰写内容。%s。
请根据已有的场景描述续写主播接下来在做什么，并生成观众弹幕。
只返回一个 JSON 对象，格式为：
{"narrative": "不超过200字的场景续写", "chatEntries": [{"author": "观众昵称", "text": "不超过30字的弹幕"}]}
chatEntries 数量不超过 %d 条。`

// BuildPrompt 构造系统提示与用户提示
func BuildPrompt(req Request) (string, string) {
	limit := req.MaxChatEntries
	if limit <= 0 {
		limit = 25
	}
	system := fmt.Sprintf(systemPrompt, req.SystemContext(), limit)

	var b strings.Builder
	b.WriteString("已有场景描述：\n")
	if req.PriorNarrativeTail == "" {
		b.WriteString("（直播刚开始）")
	} else {
		b.WriteString(req.PriorNarrativeTail)
	}

	if len(req.Engagement.RecentUserLines) > 0 {
		b.WriteString("\n\n我最近发的弹幕：\n")
		for _, line := range req.Engagement.RecentUserLines {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if len(req.Engagement.RecentGifts) > 0 {
		b.WriteString("\n我最近送出的礼物：\n")
		for _, g := range req.Engagement.RecentGifts {
			fmt.Fprintf(&b, "- %s x%d\n", g.Name, g.Count)
		}
		b.WriteString("请让主播对这些礼物做出回应。")
	}

	return system, b.String()
}

// GeneratorFunc 函数适配
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Envelope 生成结果结构
type Envelope struct {
	Narrative   string            `json:"narrative"`
	ChatEntries []model.ChatEntry `json:"chatEntries"`
}

// Static 固定返回给定结构，用于离线运行
func Static(env Envelope) Generator {
	if env.ChatEntries == nil {
		env.ChatEntries = []model.ChatEntry{}
	}
	data, _ := json.Marshal(env)
	return GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return string(data), nil
	})
}
