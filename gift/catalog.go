package gift

import (
	"sort"

	"TianHe-LiveSim/model"
)

var defaultGifts = []model.GiftDefinition{
	{ID: "heart", Name: "小心心", Icon: "💗", Price: 1, Tier: model.TierFloat},
	{ID: "glowstick", Name: "荧光棒", Icon: "🪄", Price: 5, Tier: model.TierFloat},
	{ID: "coffee", Name: "咖啡", Icon: "☕", Price: 10, Tier: model.TierFloat},
	{ID: "flower", Name: "花束", Icon: "💐", Price: 30, Tier: model.TierExplode},
	{ID: "cake", Name: "蛋糕", Icon: "🎂", Price: 50, Tier: model.TierExplode},
	{ID: "yacht", Name: "游艇", Icon: "🛥", Price: 300, Tier: model.TierFullscreen},
	{ID: "rocket", Name: "火箭", Icon: "🚀", Price: 500, Tier: model.TierFullscreen},
}

// Catalog 只读礼物目录
type Catalog struct {
	gifts []model.GiftDefinition
	byID  map[string]model.GiftDefinition
}

func NewCatalog(gifts []model.GiftDefinition) *Catalog {
	c := &Catalog{
		gifts: make([]model.GiftDefinition, len(gifts)),
		byID:  make(map[string]model.GiftDefinition, len(gifts)),
	}
	copy(c.gifts, gifts)
	sort.SliceStable(c.gifts, func(i, j int) bool { return c.gifts[i].Price < c.gifts[j].Price })
	for _, g := range c.gifts {
		c.byID[g.ID] = g
	}
	return c
}

func DefaultCatalog() *Catalog {
	return NewCatalog(defaultGifts)
}

func (c *Catalog) Lookup(id string) (model.GiftDefinition, bool) {
	g, ok := c.byID[id]
	return g, ok
}

// All 按价格升序
func (c *Catalog) All() []model.GiftDefinition {
	out := make([]model.GiftDefinition, len(c.gifts))
	copy(out, c.gifts)
	return out
}

func (c *Catalog) ByTier(tiers ...model.GiftTier) []model.GiftDefinition {
	allowed := make(map[model.GiftTier]bool, len(tiers))
	for _, t := range tiers {
		allowed[t] = true
	}
	var out []model.GiftDefinition
	for _, g := range c.gifts {
		if allowed[g.Tier] {
			out = append(out, g)
		}
	}
	return out
}
