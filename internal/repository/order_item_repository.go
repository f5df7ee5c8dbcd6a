package repository

import (
	"context"

	"gasapp/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error)
	// 複数注文分をまとめて引く（一覧表示のN+1回避）
	ListByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]model.OrderItem, error)
}
