package session

import (
	"sync"

	"gasapp/internal/usecase"
)

// OrderCache はセッションが持つ注文コレクションの唯一の置き場。
// 書き込みは全置換かID指定パッチだけ。呼び出し側に内部スライスは渡さない
// （スナップショットのコピーを返す）。
type OrderCache struct {
	mu     sync.RWMutex
	orders []usecase.OrderOutput
	index  map[string]int
}

func NewOrderCache() *OrderCache {
	return &OrderCache{index: map[string]int{}}
}

// ReplaceAll はコレクションの全置換。IDで重複排除する
// （同じ注文が二重に入ることはない）。
func (c *OrderCache) ReplaceAll(orders []usecase.OrderOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orders = make([]usecase.OrderOutput, 0, len(orders))
	c.index = make(map[string]int, len(orders))
	for _, o := range orders {
		if _, dup := c.index[o.ID]; dup {
			continue
		}
		c.index[o.ID] = len(c.orders)
		c.orders = append(c.orders, o)
	}
}

// Patch はID一致のエントリだけ差し替える。なければ何もしない
// （新規分は次の全置換で入る）。
func (c *OrderCache) Patch(o usecase.OrderOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[o.ID]; ok {
		c.orders[i] = o
	}
}

func (c *OrderCache) Get(orderID string) (usecase.OrderOutput, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[orderID]
	if !ok {
		return usecase.OrderOutput{}, false
	}
	return c.orders[i], true
}

func (c *OrderCache) Snapshot() []usecase.OrderOutput {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]usecase.OrderOutput, len(c.orders))
	copy(out, c.orders)
	return out
}

func (c *OrderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}
