package collab

import (
	"fmt"
	"sync"

	"TianHe-LiveSim/model"
)

// Wallet 观众余额，唯一可信来源
type Wallet interface {
	Balance() int64
	Debit(amount int64) (int64, error)
}

// MemoryWallet 进程内钱包
type MemoryWallet struct {
	mutex   sync.Mutex
	balance int64
}

func NewMemoryWallet(balance int64) *MemoryWallet {
	return &MemoryWallet{balance: balance}
}

func (w *MemoryWallet) Balance() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.balance
}

// Debit 扣款，余额不足时不做任何修改
func (w *MemoryWallet) Debit(amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("invalid debit amount %d", amount)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.balance < amount {
		return w.balance, model.ErrInsufficientFunds
	}
	w.balance -= amount
	return w.balance, nil
}

// Credit 充值
func (w *MemoryWallet) Credit(amount int64) int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if amount > 0 {
		w.balance += amount
	}
	return w.balance
}
