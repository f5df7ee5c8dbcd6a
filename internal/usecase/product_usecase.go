package usecase

import (
	"context"
	"errors"
	"net/http"

	"gasapp/internal/domain/model"
	repo "gasapp/internal/repository"
)

// カタログの読み取りだけ。品揃えの管理は別システムの持ち物。
type ProductUsecase struct {
	products repo.ProductRepository
}

func NewProductUsecase(products repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{products: products}
}

type ListNearInput struct {
	Latitude  float64
	Longitude float64
	Limit     int
}

// ListNear は端末座標に近い順の商品一覧。
func (u *ProductUsecase) ListNear(ctx context.Context, in ListNearInput) ([]model.Product, error) {
	if in.Latitude < -90 || in.Latitude > 90 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid lat")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid lng")
	}

	items, err := u.products.ListNear(ctx, in.Latitude, in.Longitude, in.Limit)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id string) (model.Product, error) {
	if id == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}
