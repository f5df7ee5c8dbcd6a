package repository

import (
	"context"
	"errors"
	"time"

	"gasapp/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")

	// 条件付き更新が負けた（他のアクターが先にステータスを動かした）。
	// 呼び出し側は再取得してからやり直すか判断する。
	ErrStaleState = errors.New("stale state")
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	// 顧客スコープ。newest-first。
	ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error)
	// 業者スコープ（全件）。newest-first。
	ListAll(ctx context.Context) ([]model.Order, error)
	ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	Create(ctx context.Context, order model.Order) error

	// UpdateStatus は条件付き更新。保存中のstatusがexpectedのときだけ書く。
	// 注文はあるが先を越されていたらErrStaleState、なければErrNotFound。
	// providerIDが非nilなら同時にprovider_idを記録する（業者が動かした印）。
	// etaが非nilならestimated_deliveryも更新する（delivering入り）。
	UpdateStatus(ctx context.Context, orderID string, expected model.OrderStatus, next model.OrderStatus, providerID *string, eta *time.Time) error
}
