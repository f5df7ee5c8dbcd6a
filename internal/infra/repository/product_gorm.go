package repository

import (
	"context"
	"errors"
	"fmt"

	"gasapp/internal/domain/model"
	repo "gasapp/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// ListNear は座標に近い順。距離は平面近似で十分（市内配達の規模）。
func (r *ProductGormRepository) ListNear(ctx context.Context, lat float64, lng float64, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	orderExpr := fmt.Sprintf(
		"((latitude - %f) * (latitude - %f)) + ((longitude - %f) * (longitude - %f)) asc",
		lat, lat, lng, lng,
	)

	var items []model.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order(orderExpr).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Product{}, err
	}
	return items, nil
}
