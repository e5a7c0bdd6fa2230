package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"TianHe-LiveSim/config"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/phrase"
	"TianHe-LiveSim/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptIncludesEngagement(t *testing.T) {
	system, user := BuildPrompt(Request{
		Category:           "游戏",
		Persona:            "阿天",
		PriorNarrativeTail: "主播刚刚赢了一局",
		Engagement: model.EngagementSnapshot{
			RecentUserLines: []string{"加油"},
			RecentGifts:     []model.GiftCount{{Name: "火箭", Count: 2}},
		},
		MaxChatEntries: 10,
	})
	assert.Contains(t, system, "游戏")
	assert.Contains(t, system, "阿天")
	assert.Contains(t, system, "10")
	assert.Contains(t, user, "主播刚刚赢了一局")
	assert.Contains(t, user, "加油")
	assert.Contains(t, user, "火箭 x2")
}

func TestStaticGenerator(t *testing.T) {
	g := Static(Envelope{Narrative: "n", ChatEntries: []model.ChatEntry{{Author: "a", Text: "b"}}})
	raw, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	r := protocol.ExtractEnvelope(raw)
	require.Equal(t, protocol.Parsed, r.Kind)
	assert.Equal(t, "n", r.Narrative)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx, Request{})
	assert.Error(t, err)
}

func TestOfflineGeneratorProducesEnvelope(t *testing.T) {
	g := Offline(phrase.NewPicker(9))
	raw, err := g.Generate(context.Background(), Request{
		Category:       "美食",
		MaxChatEntries: 5,
		Engagement:     model.EngagementSnapshot{RecentGifts: []model.GiftCount{{Name: "蛋糕", Count: 1}}},
	})
	require.NoError(t, err)

	r := protocol.ExtractEnvelope(raw)
	require.Equal(t, protocol.Parsed, r.Kind, "%v", r.Err)
	assert.Contains(t, r.Narrative, "蛋糕")
	assert.Len(t, r.ChatEntries, 5)
}

func TestOpenAIGeneratorAgainstFakeServer(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"narrative\":\"ok\",\"chatEntries\":[]}"}}]}`)
	}))
	defer srv.Close()

	cfg := config.NewConfig().Generation
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test"
	cfg.Model = "test-model"

	g, err := NewOpenAIGenerator(cfg)
	require.NoError(t, err)

	raw, err := g.Generate(context.Background(), Request{Category: "聊天"})
	require.NoError(t, err)
	assert.Equal(t, "test-model", gotModel)
	assert.Equal(t, protocol.Parsed, protocol.ExtractEnvelope(raw).Kind)
}

func TestOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(config.GenerationConfig{})
	assert.Error(t, err)
}
