package repository

import (
	"context"

	"gasapp/internal/domain/model"
)

// カタログは外部の持ち物。ここでは存在確認と近傍リストだけ約束する。
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (model.Product, error)
	// 座標に近い順。limit<=0はデフォルト件数。
	ListNear(ctx context.Context, lat float64, lng float64, limit int) ([]model.Product, error)
}
