package usecase

import (
	"context"
	"net/http"

	repo "gasapp/internal/repository"
)

// 業者側の注文一覧。全顧客の注文を見る（スコープの広い側）。
type ProviderOrderUsecase struct {
	tx    repo.TransactionManager
	order *OrderUsecase
}

func NewProviderOrderUsecase(tx repo.TransactionManager, order *OrderUsecase) *ProviderOrderUsecase {
	return &ProviderOrderUsecase{tx: tx, order: order}
}

// List は全注文。newest-first。scope/statusで絞れる。
func (u *ProviderOrderUsecase) List(ctx context.Context, providerID string, in ListOrdersInput) ([]OrderOutput, error) {
	if providerID == "" {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListAll(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orders, err = applyListFilter(orders, in)
		if err != nil {
			return err
		}

		outs, err = u.order.attachItems(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}
