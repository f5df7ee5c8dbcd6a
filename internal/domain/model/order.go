package model

import "time"

// 配達手数料は固定（Kzの最小単位）
const DefaultDeliveryFee int64 = 500

// 金額整合の許容差（丸め誤差のみ。最小単位で1）
const TotalTolerance int64 = 1

type Order struct {
	ID                string      `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID        string      `gorm:"type:uuid;not null;index" json:"customer_id"`
	ProviderID        *string     `gorm:"type:uuid;index" json:"provider_id"`
	Status            OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	DeliveryAddress   string      `gorm:"type:varchar(255);not null" json:"delivery_address"`
	Latitude          *float64    `json:"latitude"`
	Longitude         *float64    `json:"longitude"`
	CustomerName      string      `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerPhone     string      `gorm:"type:varchar(30);not null" json:"customer_phone"`
	Subtotal          int64       `gorm:"not null" json:"subtotal"`
	DeliveryFee       int64       `gorm:"not null" json:"delivery_fee"`
	TotalAmount       int64       `gorm:"not null" json:"total_amount"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery"`
	CreatedAt         time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`

	// 明細は注文と同時に作られ、以後不変
	Items []OrderItem `gorm:"-" json:"items"`
}

// ComputeSubtotal は明細の合計（数量×単価スナップショット）。
func ComputeSubtotal(items []OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitPriceSnapshot * it.Quantity
	}
	return sum
}

// ComputeTotal は小計＋配達手数料。
func ComputeTotal(subtotal int64, deliveryFee int64) int64 {
	return subtotal + deliveryFee
}

// VerifyTotals は保存済み合計と再計算合計の整合を確認する。
// ずれが許容差を超えたらfalse（表示は再計算値を優先）。
func (o Order) VerifyTotals() (recomputed int64, ok bool) {
	recomputed = ComputeTotal(ComputeSubtotal(o.Items), o.DeliveryFee)
	diff := o.TotalAmount - recomputed
	if diff < 0 {
		diff = -diff
	}
	return recomputed, diff <= TotalTolerance
}

// ActiveOrders は進行中（未完了・未キャンセル）の注文だけを返す。
// 入力はnewest-first前提、順序は保つ。
func ActiveOrders(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if !o.Status.IsTerminal() {
			out = append(out, o)
		}
	}
	return out
}

// HistoricalOrders は完了済み（delivered/cancelled）の注文だけを返す。
func HistoricalOrders(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status.IsTerminal() {
			out = append(out, o)
		}
	}
	return out
}

// FilterByStatus は指定ステータスのみに絞る。
func FilterByStatus(orders []Order, status OrderStatus) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// RecentOrders は先頭からn件（newest-first前提）。
func RecentOrders(orders []Order, n int) []Order {
	if n < 0 {
		n = 0
	}
	if n > len(orders) {
		n = len(orders)
	}
	out := make([]Order, n)
	copy(out, orders[:n])
	return out
}
