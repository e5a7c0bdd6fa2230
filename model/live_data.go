package model

import "time"

// 弹幕类型
type DanmakuKind string

const (
	KindNormal DanmakuKind = "normal"
	KindSystem DanmakuKind = "system"
	KindGift   DanmakuKind = "gift"
)

// 弹幕消息，创建后不可修改
type DanmakuMessage struct {
	ID        string      `json:"id"`
	Author    string      `json:"author"`
	Text      string      `json:"text"`
	Color     string      `json:"color"`
	Level     int         `json:"level"`
	Kind      DanmakuKind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
}

// 生成协作方返回的一条弹幕
type ChatEntry struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// 礼物档位，决定动画类型
type GiftTier string

const (
	TierFloat      GiftTier = "float"
	TierExplode    GiftTier = "explode"
	TierFullscreen GiftTier = "fullscreen"
)

// 礼物定义
type GiftDefinition struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Icon  string   `json:"icon"`
	Price int64    `json:"price"`
	Tier  GiftTier `json:"tier"`
}

// 礼物事件
type GiftEvent struct {
	ID        string         `json:"id"`
	Gift      GiftDefinition `json:"gift"`
	Sender    string         `json:"sender"`
	Timestamp time.Time      `json:"timestamp"`
	Simulated bool           `json:"simulated"`
}

// 飘屏表情
type FloatingReaction struct {
	ID        string    `json:"id"`
	Glyph     string    `json:"glyph"`
	Lane      int       `json:"lane"`
	SpawnedAt time.Time `json:"spawned_at"`
}

// 礼物统计
type GiftCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// 观众互动快照
type EngagementSnapshot struct {
	RecentUserLines []string    `json:"recent_user_lines"`
	RecentGifts     []GiftCount `json:"recent_gifts"`
}

// 房间缓存条目
type RoomState struct {
	RoomID         string      `json:"room_id"`
	SceneNarrative []string    `json:"scene_narrative"`
	SecondaryPool  []ChatEntry `json:"secondary_pool"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// 直播间在线统计
type LiveStats struct {
	OnlineCount int       `json:"online_count"`
	Timestamp   time.Time `json:"timestamp"`
}
