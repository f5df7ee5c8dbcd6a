package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gasapp/internal/domain/model"
	repo "gasapp/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type OrderUsecase struct {
	tx          repo.TransactionManager
	idGen       IDGenerator
	clock       Clock
	deliveryFee int64
	log         *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, idGen IDGenerator, clock Clock, deliveryFee int64, log *slog.Logger) *OrderUsecase {
	if deliveryFee <= 0 {
		deliveryFee = model.DefaultDeliveryFee
	}
	if log == nil {
		log = slog.Default()
	}
	return &OrderUsecase{tx: tx, idGen: idGen, clock: clock, deliveryFee: deliveryFee, log: log}
}

type PlaceOrderItemInput struct {
	ProductID string
	Quantity  int64
}

type PlaceOrderInput struct {
	Items           []PlaceOrderItemInput
	DeliveryAddress string
	Latitude        *float64
	Longitude       *float64
	CustomerName    string
	CustomerPhone   string
}

type OrderItemOutput struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type OrderOutput struct {
	ID                string            `json:"id"`
	CustomerID        string            `json:"customer_id"`
	ProviderID        *string           `json:"provider_id"`
	Status            string            `json:"status"`
	DeliveryAddress   string            `json:"delivery_address"`
	CustomerName      string            `json:"customer_name"`
	CustomerPhone     string            `json:"customer_phone"`
	Subtotal          int64             `json:"subtotal"`
	DeliveryFee       int64             `json:"delivery_fee"`
	TotalAmount       int64             `json:"total_amount"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []OrderItemOutput `json:"items"`
}

// PlaceOrder は注文ヘッダと明細を同一トランザクションで作る。
// 単価と商品名はこの時点のカタログからスナップショットする（後から価格が
// 変わっても注文側は動かない）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, customerID string, in PlaceOrderInput) (OrderOutput, error) {
	if customerID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "empty items")
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid item")
		}
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid delivery_address")
	}
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.CustomerPhone) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid contact")
	}

	var out OrderOutput

	//ヘッダと明細は必ず両方成功か両方なし
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.clock.Now()

		orderItems := make([]model.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ID:                  u.idGen.NewID(),
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
				CreatedAt:           now,
			})
		}

		subtotal := model.ComputeSubtotal(orderItems)
		total := model.ComputeTotal(subtotal, u.deliveryFee)
		eta := now.Add(model.EstimatedDeliveryLead)

		order := model.Order{
			ID:                u.idGen.NewID(),
			CustomerID:        customerID,
			Status:            model.OrderStatusPending,
			DeliveryAddress:   strings.TrimSpace(in.DeliveryAddress),
			Latitude:          in.Latitude,
			Longitude:         in.Longitude,
			CustomerName:      strings.TrimSpace(in.CustomerName),
			CustomerPhone:     strings.TrimSpace(in.CustomerPhone),
			Subtotal:          subtotal,
			DeliveryFee:       u.deliveryFee,
			TotalAmount:       total,
			EstimatedDelivery: &eta,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := r.Orders().Create(ctx, order); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID: customerID,
			ActorRole:   model.RoleClient,
			Action:      model.AuditActionCreateOrder,
			OrderID:     order.ID,
			AfterJSON:   `{"status":"pending"}`,
			CreatedAt:   now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.Items = orderItems
		out = u.toOrderOutput(order)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 一覧の絞り込みスコープ
const (
	ScopeAll     = ""
	ScopeActive  = "active"
	ScopeHistory = "history"
)

type ListOrdersInput struct {
	Scope  string
	Status string
}

// ListMyOrders は自分の注文だけ。newest-first。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, customerID string, in ListOrdersInput) ([]OrderOutput, error) {
	if customerID == "" {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByCustomer(ctx, customerID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orders, err = applyListFilter(orders, in)
		if err != nil {
			return err
		}

		outs, err = u.attachItems(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, customerID string, orderID string) (OrderOutput, error) {
	if customerID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.CustomerID != customerID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Items = items
		out = u.toOrderOutput(o)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type UpdateOrderStatusInput struct {
	Status string
	// 呼び出し側が直前に見ていたstatus。空なら今DBにある値を条件にする。
	ExpectedStatus string
}

// UpdateStatus は遷移表を検証してから条件付きで書く。
// 他のアクターに先を越されていたら409で返し、勝手に上書きしない。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, actorID string, role model.Role, orderID string, in UpdateOrderStatusInput) (OrderOutput, error) {
	if actorID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	target := model.OrderStatus(strings.TrimSpace(in.Status))
	if !target.IsValid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//clientは自分の注文しか触れない（他人のは存在しない扱い）
		if role == model.RoleClient && o.CustomerID != actorID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		//呼び出し側が観測していた状態と今の状態が既にずれていたら409
		if in.ExpectedStatus != "" && model.OrderStatus(in.ExpectedStatus) != o.Status {
			return NewHTTPError(http.StatusConflict, "stale order status")
		}

		now := u.clock.Now()
		updated, err := model.ApplyTransition(o, role, target, now)
		if err != nil {
			var te *model.TransitionError
			if errors.As(err, &te) {
				switch te.Reason {
				case model.TransitionReasonUnauthorized:
					return NewHTTPError(http.StatusForbidden, "transition not allowed")
				default:
					return NewHTTPError(http.StatusBadRequest, "illegal transition")
				}
			}
			return NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		//同じ値への再送はno-op成功（書かない）
		if updated.Status == o.Status {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.Items = items
			out = u.toOrderOutput(o)
			return nil
		}

		var providerID *string
		if role == model.RoleProvider {
			providerID = &actorID
			updated.ProviderID = &actorID
		}

		var eta *time.Time
		if updated.EstimatedDelivery != nil && o.EstimatedDelivery == nil {
			eta = updated.EstimatedDelivery
		}

		err = r.Orders().UpdateStatus(ctx, orderID, o.Status, updated.Status, providerID, eta)
		if errors.Is(err, repo.ErrStaleState) {
			return NewHTTPError(http.StatusConflict, "stale order status")
		}
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		beforeJSON := `{"status":"` + string(o.Status) + `"}`
		afterJSON := `{"status":"` + string(updated.Status) + `"}`
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID: actorID,
			ActorRole:   role,
			Action:      model.AuditActionUpdateOrderStatus,
			OrderID:     orderID,
			BeforeJSON:  beforeJSON,
			AfterJSON:   afterJSON,
			CreatedAt:   now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		updated.Items = items
		out = u.toOrderOutput(updated)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func applyListFilter(orders []model.Order, in ListOrdersInput) ([]model.Order, error) {
	switch in.Scope {
	case ScopeAll:
	case ScopeActive:
		orders = model.ActiveOrders(orders)
	case ScopeHistory:
		orders = model.HistoricalOrders(orders)
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "invalid scope")
	}

	if in.Status != "" {
		st := model.OrderStatus(in.Status)
		if !st.IsValid() {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		orders = model.FilterByStatus(orders, st)
	}
	return orders, nil
}

// attachItems は明細をまとめて引いてDTOに詰める。
func (u *OrderUsecase) attachItems(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	itemsByOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		o.Items = itemsByOrder[o.ID]
		outs = append(outs, u.toOrderOutput(o))
	}
	return outs, nil
}

// toOrderOutput は表示用DTOへ。保存合計と再計算合計がずれていたら
// 警告ログを出して再計算値を優先する（返すのは止めない）。
func (u *OrderUsecase) toOrderOutput(o model.Order) OrderOutput {
	recomputed, ok := o.VerifyTotals()
	total := o.TotalAmount
	subtotal := o.Subtotal
	if !ok {
		u.log.Warn("order totals mismatch",
			"order_id", o.ID,
			"stored_total", o.TotalAmount,
			"recomputed_total", recomputed,
		)
		total = recomputed
		subtotal = model.ComputeSubtotal(o.Items)
	}

	outItems := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}

	return OrderOutput{
		ID:                o.ID,
		CustomerID:        o.CustomerID,
		ProviderID:        o.ProviderID,
		Status:            string(o.Status),
		DeliveryAddress:   o.DeliveryAddress,
		CustomerName:      o.CustomerName,
		CustomerPhone:     o.CustomerPhone,
		Subtotal:          subtotal,
		DeliveryFee:       o.DeliveryFee,
		TotalAmount:       total,
		EstimatedDelivery: o.EstimatedDelivery,
		CreatedAt:         o.CreatedAt,
		Items:             outItems,
	}
}
