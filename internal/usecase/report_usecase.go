package usecase

import (
	"context"
	"net/http"
	"sort"
	"time"

	"gasapp/internal/domain/model"
	repo "gasapp/internal/repository"
)

// 集計期間。その日の0時を起点に遡る（週=7日、月=30日、年=365日）。
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

type ReportUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewReportUsecase(tx repo.TransactionManager, clock Clock) *ReportUsecase {
	return &ReportUsecase{tx: tx, clock: clock}
}

type TopProduct struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

type ReportOutput struct {
	Period            string                    `json:"period"`
	TotalOrders       int                       `json:"total_orders"`
	DeliveredOrders   int                       `json:"delivered_orders"`
	PendingOrders     int                       `json:"pending_orders"`
	TotalRevenue      int64                     `json:"total_revenue"`
	AverageOrderValue int64                     `json:"average_order_value"`
	StatusBreakdown   map[model.OrderStatus]int `json:"status_breakdown"`
	TopProducts       []TopProduct              `json:"top_products"`
}

// Summary は業者のレポート画面用の集計。
// 売上はdeliveredの注文だけを数える（キャンセルや進行中は収益ではない）。
func (u *ReportUsecase) Summary(ctx context.Context, providerID string, period string) (ReportOutput, error) {
	if providerID == "" {
		return ReportOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	since, err := periodStart(period, u.clock.Now())
	if err != nil {
		return ReportOutput{}, err
	}

	var out ReportOutput

	txErr := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		all, err := r.Orders().ListAll(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orders := make([]model.Order, 0, len(all))
		for _, o := range all {
			if !o.CreatedAt.Before(since) {
				orders = append(orders, o)
			}
		}

		breakdown := map[model.OrderStatus]int{
			model.OrderStatusPending:    0,
			model.OrderStatusConfirmed:  0,
			model.OrderStatusPreparing:  0,
			model.OrderStatusDelivering: 0,
			model.OrderStatusDelivered:  0,
			model.OrderStatusCancelled:  0,
		}

		var revenue int64
		delivered := make([]model.Order, 0, len(orders))
		for _, o := range orders {
			breakdown[o.Status]++
			if o.Status == model.OrderStatusDelivered {
				revenue += o.TotalAmount
				delivered = append(delivered, o)
			}
		}

		var avg int64
		if len(delivered) > 0 {
			avg = revenue / int64(len(delivered))
		}

		top, err := u.topProducts(ctx, r, delivered)
		if err != nil {
			return err
		}

		out = ReportOutput{
			Period:            period,
			TotalOrders:       len(orders),
			DeliveredOrders:   len(delivered),
			PendingOrders:     breakdown[model.OrderStatusPending],
			TotalRevenue:      revenue,
			AverageOrderValue: avg,
			StatusBreakdown:   breakdown,
			TopProducts:       top,
		}
		return nil
	})

	if txErr != nil {
		return ReportOutput{}, txErr
	}
	return out, nil
}

const topProductsLimit = 5

// topProducts はdelivered注文の明細から数量を商品ごとに合算。
// 数量降順、同数はproduct_id昇順で決定的に並べる。
func (u *ReportUsecase) topProducts(ctx context.Context, r repo.TxRepos, delivered []model.Order) ([]TopProduct, error) {
	ids := make([]string, 0, len(delivered))
	for _, o := range delivered {
		ids = append(ids, o.ID)
	}

	itemsByOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	qtyByProduct := map[string]int64{}
	nameByProduct := map[string]string{}
	for _, items := range itemsByOrder {
		for _, it := range items {
			qtyByProduct[it.ProductID] += it.Quantity
			nameByProduct[it.ProductID] = it.ProductNameSnapshot
		}
	}

	ranked := make([]TopProduct, 0, len(qtyByProduct))
	for pid, qty := range qtyByProduct {
		ranked = append(ranked, TopProduct{ProductID: pid, Name: nameByProduct[pid], Quantity: qty})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	if len(ranked) > topProductsLimit {
		ranked = ranked[:topProductsLimit]
	}
	return ranked, nil
}

func periodStart(period string, now time.Time) (time.Time, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case PeriodToday:
		return dayStart, nil
	case PeriodWeek:
		return dayStart.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return dayStart.AddDate(0, 0, -30), nil
	case PeriodYear:
		return dayStart.AddDate(0, 0, -365), nil
	default:
		return time.Time{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}
}
