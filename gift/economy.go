package gift

import (
	"fmt"
	"sync"
	"time"

	"TianHe-LiveSim/collab"
	"TianHe-LiveSim/model"

	"github.com/google/uuid"
)

// Appender 弹幕追加入口
type Appender interface {
	Append(msg model.DanmakuMessage)
}

// GiftRecorder 记录观众送出的礼物
type GiftRecorder interface {
	RecordGift(name string)
}

type Options struct {
	DisplayDuration time.Duration
	MaxRecent       int
}

// Economy 礼物扣费与事件生成
type Economy struct {
	mutex    sync.Mutex
	catalog  *Catalog
	wallet   collab.Wallet
	feed     Appender
	recorder GiftRecorder

	recent    []model.GiftEvent
	display   time.Duration
	maxRecent int
	now       func() time.Time

	listeners []func(model.GiftEvent)
}

func NewEconomy(catalog *Catalog, wallet collab.Wallet, feed Appender, recorder GiftRecorder, opts Options) *Economy {
	if opts.DisplayDuration <= 0 {
		opts.DisplayDuration = 4 * time.Second
	}
	if opts.MaxRecent <= 0 {
		opts.MaxRecent = 10
	}
	return &Economy{
		catalog:   catalog,
		wallet:    wallet,
		feed:      feed,
		recorder:  recorder,
		display:   opts.DisplayDuration,
		maxRecent: opts.MaxRecent,
		now:       time.Now,
	}
}

func (e *Economy) Catalog() *Catalog {
	return e.catalog
}

// OnGift 注册礼物事件回调
func (e *Economy) OnGift(fn func(model.GiftEvent)) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.listeners = append(e.listeners, fn)
}

// SendGift 观众送礼，余额不足时不扣费也不产生事件
func (e *Economy) SendGift(giftID, sender string) (*model.GiftEvent, int64, error) {
	gift, ok := e.catalog.Lookup(giftID)
	if !ok {
		return nil, e.wallet.Balance(), fmt.Errorf("%w: %s", model.ErrUnknownGift, giftID)
	}

	e.mutex.Lock()
	// 扣款前重新读取余额
	if balance := e.wallet.Balance(); balance < gift.Price {
		e.mutex.Unlock()
		return nil, balance, model.ErrInsufficientFunds
	}
	newBalance, err := e.wallet.Debit(gift.Price)
	if err != nil {
		e.mutex.Unlock()
		return nil, newBalance, err
	}
	event := e.emitLocked(gift, sender, false)
	listeners := e.listeners
	e.mutex.Unlock()

	if e.recorder != nil {
		e.recorder.RecordGift(gift.Name)
	}
	for _, fn := range listeners {
		fn(event)
	}
	return &event, newBalance, nil
}

// EmitSimulated 模拟观众送礼，不涉及观众钱包
func (e *Economy) EmitSimulated(gift model.GiftDefinition, sender string) *model.GiftEvent {
	e.mutex.Lock()
	event := e.emitLocked(gift, sender, true)
	listeners := e.listeners
	e.mutex.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
	return &event
}

func (e *Economy) emitLocked(gift model.GiftDefinition, sender string, simulated bool) model.GiftEvent {
	now := e.now()
	event := model.GiftEvent{
		ID:        uuid.NewString(),
		Gift:      gift,
		Sender:    sender,
		Timestamp: now,
		Simulated: simulated,
	}

	e.pruneLocked(now)
	e.recent = append(e.recent, event)
	if len(e.recent) > e.maxRecent {
		e.recent = e.recent[len(e.recent)-e.maxRecent:]
	}

	e.feed.Append(model.DanmakuMessage{
		ID:        uuid.NewString(),
		Author:    sender,
		Text:      fmt.Sprintf("送出了 %s %s", gift.Icon, gift.Name),
		Color:     "#ffd302",
		Kind:      model.KindGift,
		Timestamp: now,
	})
	return event
}

func (e *Economy) pruneLocked(now time.Time) {
	kept := e.recent[:0]
	for _, ev := range e.recent {
		if now.Sub(ev.Timestamp) < e.display {
			kept = append(kept, ev)
		}
	}
	e.recent = kept
}

// Recent 仍在展示期内的礼物事件
func (e *Economy) Recent() []model.GiftEvent {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.pruneLocked(e.now())
	out := make([]model.GiftEvent, len(e.recent))
	copy(out, e.recent)
	return out
}
