package model

// 进房模式
type Mode string

const (
	ModeHost  Mode = "host"
	ModeWatch Mode = "watch"
)

// 房间标识，房间生命周期内不变
type RoomIdentity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	CoverURL       string `json:"cover_url"`
	AvatarURL      string `json:"avatar_url"`
	InitialViewers int    `json:"initial_viewers"`
}

// 观看模式下模拟主播的描述
type StreamerPayload struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	AvatarURL     string `json:"avatar_url"`
	CoverURL      string `json:"cover_url"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SeedNarrative string `json:"seed_narrative"`
	Viewers       int    `json:"viewers,omitempty"`
}

// 进房参数
type EntryParams struct {
	RoomID   string           `json:"room_id"`
	Mode     Mode             `json:"mode"`
	Streamer *StreamerPayload `json:"streamer,omitempty"`
}

// Identity 根据进房参数生成房间标识
func (p EntryParams) Identity(hostName string, defaultViewers int) RoomIdentity {
	id := RoomIdentity{
		ID:             p.RoomID,
		Name:           hostName,
		Category:       "聊天",
		InitialViewers: defaultViewers,
	}
	if p.Streamer != nil {
		if p.Streamer.Name != "" {
			id.Name = p.Streamer.Name
		}
		if p.Streamer.Category != "" {
			id.Category = p.Streamer.Category
		}
		id.CoverURL = p.Streamer.CoverURL
		id.AvatarURL = p.Streamer.AvatarURL
		if p.Streamer.Viewers > 0 {
			id.InitialViewers = p.Streamer.Viewers
		}
	}
	return id
}

// SeedNarrative 初始场景描述
func (p EntryParams) SeedNarrative() string {
	if p.Streamer == nil {
		return ""
	}
	if p.Streamer.SeedNarrative != "" {
		return p.Streamer.SeedNarrative
	}
	return p.Streamer.Description
}
