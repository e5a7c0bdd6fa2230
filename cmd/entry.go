package cmd

import (
	"TianHe-LiveSim/config"
	"TianHe-LiveSim/model"
	"TianHe-LiveSim/protocol"

	"github.com/spf13/cobra"
)

type entryFlags struct {
	entryURL    string
	roomID      string
	mode        string
	name        string
	category    string
	title       string
	description string
	narrative   string
	viewers     int
}

func (f *entryFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.entryURL, "entry", "", "room entry URL, overrides the other room flags")
	flags.StringVar(&f.roomID, "room", "", "room id (default from config)")
	flags.StringVar(&f.mode, "mode", "", "host or watch (default from config)")
	flags.StringVar(&f.name, "streamer", "", "simulated streamer name (watch mode)")
	flags.StringVar(&f.category, "category", "", "room category")
	flags.StringVar(&f.title, "title", "", "room title")
	flags.StringVar(&f.description, "description", "", "room description")
	flags.StringVar(&f.narrative, "narrative", "", "seed scene narrative")
	flags.IntVar(&f.viewers, "viewers", 0, "initial viewer count")
}

// params 优先使用进房链接，否则按参数与配置组装
func (f *entryFlags) params(cfg *config.Config) (model.EntryParams, error) {
	if f.entryURL != "" {
		return protocol.DecodeEntry(f.entryURL)
	}

	p := model.EntryParams{
		RoomID: cfg.RoomID,
		Mode:   model.Mode(cfg.Mode),
	}
	if f.roomID != "" {
		p.RoomID = f.roomID
	}
	if f.mode != "" {
		p.Mode = model.Mode(f.mode)
	}
	if p.Mode == model.ModeWatch || f.name != "" || f.category != "" || f.narrative != "" {
		p.Streamer = &model.StreamerPayload{
			Name:          f.name,
			Category:      f.category,
			Title:         f.title,
			Description:   f.description,
			SeedNarrative: f.narrative,
			Viewers:       f.viewers,
		}
		if p.Streamer.Name == "" {
			p.Streamer.Name = cfg.HostName
		}
	}

	// 校验与链接解析保持一致
	raw, err := protocol.EncodeEntry(cfg.EntryBase, p)
	if err != nil {
		return model.EntryParams{}, err
	}
	return protocol.DecodeEntry(raw)
}
