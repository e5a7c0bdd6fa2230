package phrase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeightedChoice(t *testing.T) {
	weights := []float64{0.6, 0.4}
	assert.Equal(t, 0, WeightedChoice(0, weights))
	assert.Equal(t, 0, WeightedChoice(0.59, weights))
	assert.Equal(t, 1, WeightedChoice(0.6, weights))
	assert.Equal(t, 1, WeightedChoice(0.999, weights))

	assert.Equal(t, 1, WeightedChoice(0.1, []float64{0, 1}))
	assert.Equal(t, -1, WeightedChoice(0.5, []float64{0, 0}))
	assert.Equal(t, 2, WeightedChoice(0.99, []float64{1, -3, 1}))
}

func TestChooseSource(t *testing.T) {
	assert.Equal(t, SourceSecondary, ChooseSource(0.2, 0.6, 0.4))
	assert.Equal(t, SourceFallback, ChooseSource(0.7, 0.6, 0.4))
	assert.Equal(t, SourceFallback, ChooseSource(0.0, 0, 1))
}

func TestFallbackUnknownCategory(t *testing.T) {
	assert.Equal(t, Fallback("聊天"), Fallback("不存在的分类"))
	assert.NotEmpty(t, Fallback("游戏"))
}

func TestPickerRanges(t *testing.T) {
	p := NewPicker(42)
	for i := 0; i < 200; i++ {
		v := p.Between(-3, 5)
		assert.GreaterOrEqual(t, v, -3)
		assert.LessOrEqual(t, v, 5)

		d := p.Jitter(time.Second, 2*time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)

		s := p.Speaker()
		assert.NotEmpty(t, s.Name)
		assert.GreaterOrEqual(t, s.Level, 1)
	}
	assert.Equal(t, 0, p.Intn(0))
}
