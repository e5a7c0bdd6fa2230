package phrase

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// 说话人
type Speaker struct {
	Name  string
	Color string
	Level int
}

// Picker 并发安全的随机选择器
type Picker struct {
	mutex sync.Mutex
	rnd   *rand.Rand
}

func NewPicker(seed int64) *Picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// Float64 返回 [0,1) 随机数
func (p *Picker) Float64() float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.rnd.Float64()
}

// Intn 返回 [0,n) 随机数，n<=0 时返回 0
func (p *Picker) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.rnd.Intn(n)
}

// Between 返回 [min,max] 之间的随机整数
func (p *Picker) Between(min, max int) int {
	if max <= min {
		return min
	}
	return min + p.Intn(max-min+1)
}

// Jitter 返回 [min,max] 之间的随机时长
func (p *Picker) Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return min + time.Duration(p.rnd.Int63n(int64(max-min)+1))
}

// Chance 以概率 prob 返回 true
func (p *Picker) Chance(prob float64) bool {
	return p.Float64() < prob
}

// Speaker 随机生成一个观众
func (p *Picker) Speaker() Speaker {
	name := speakerNames[p.Intn(len(speakerNames))]
	return Speaker{
		Name:  fmt.Sprintf("%s%d", name, p.Intn(1000)),
		Color: speakerColors[p.Intn(len(speakerColors))],
		Level: p.Between(1, 40),
	}
}

// Fallback 从分类兜底弹幕池中随机取一条
func (p *Picker) Fallback(category string) (string, error) {
	pool := Fallback(category)
	if len(pool) == 0 {
		return "", fmt.Errorf("no fallback phrase for category %q", category)
	}
	return pool[p.Intn(len(pool))], nil
}

// Glyph 随机取一个飘屏表情
func (p *Picker) Glyph() string {
	return reactionGlyphs[p.Intn(len(reactionGlyphs))]
}
