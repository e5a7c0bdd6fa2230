package phrase

// 弹幕来源
type Source int

const (
	SourceSecondary Source = iota
	SourceFallback
)

// WeightedChoice 按权重表选择下标，u 取 [0,1)
// 权重全部非正时返回 -1
func WeightedChoice(u float64, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	target := u * total
	acc := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if target < acc {
			return i
		}
	}
	return last
}

// ChooseSource 在生成弹幕池与兜底弹幕之间选择
func ChooseSource(u, secondary, fallback float64) Source {
	if WeightedChoice(u, []float64{secondary, fallback}) == 0 {
		return SourceSecondary
	}
	return SourceFallback
}
