package session

import (
	"context"
	"errors"
	"sync"

	"gasapp/internal/domain/model"
	"gasapp/internal/usecase"
)

// 同じ注文に対する遷移リクエストが既に飛んでいる。キューに積まず即時拒否。
var ErrConcurrentOperation = errors.New("concurrent operation on order")

// OrderSession は認証済みクライアント1セッション分の注文ビュー。
// コレクションの書き換えはここ経由だけ：mutation成功後と明示Refreshで
// ロールに応じたコレクションを丸ごと取り直す（差分パッチの購読は無い）。
type OrderSession struct {
	userID   string
	role     model.Role
	orders   *usecase.OrderUsecase
	provider *usecase.ProviderOrderUsecase
	cache    *OrderCache

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewOrderSession(userID string, role model.Role, orders *usecase.OrderUsecase, provider *usecase.ProviderOrderUsecase) *OrderSession {
	return &OrderSession{
		userID:   userID,
		role:     role,
		orders:   orders,
		provider: provider,
		cache:    NewOrderCache(),
		inflight: map[string]struct{}{},
	}
}

// Start はセッション開始時の初回ロード。
func (s *OrderSession) Start(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh はロールに応じたコレクションを取り直して全置換する。
func (s *OrderSession) Refresh(ctx context.Context) error {
	var (
		outs []usecase.OrderOutput
		err  error
	)
	if s.role == model.RoleProvider {
		outs, err = s.provider.List(ctx, s.userID, usecase.ListOrdersInput{})
	} else {
		outs, err = s.orders.ListMyOrders(ctx, s.userID, usecase.ListOrdersInput{})
	}
	if err != nil {
		return err
	}
	s.cache.ReplaceAll(outs)
	return nil
}

// Orders はキャッシュのスナップショット（newest-first）。
func (s *OrderSession) Orders() []usecase.OrderOutput {
	return s.cache.Snapshot()
}

// Active は進行中の注文だけ。
func (s *OrderSession) Active() []usecase.OrderOutput {
	return filterTerminal(s.cache.Snapshot(), false)
}

// History は完了済み。statusが空でなければさらに絞る。
func (s *OrderSession) History(status model.OrderStatus) []usecase.OrderOutput {
	outs := filterTerminal(s.cache.Snapshot(), true)
	if status == "" {
		return outs
	}
	filtered := make([]usecase.OrderOutput, 0, len(outs))
	for _, o := range outs {
		if model.OrderStatus(o.Status) == status {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// Recent は先頭n件。
func (s *OrderSession) Recent(n int) []usecase.OrderOutput {
	outs := s.cache.Snapshot()
	if n < 0 {
		n = 0
	}
	if n > len(outs) {
		n = len(outs)
	}
	return outs[:n]
}

// CreateOrder は注文を作ってからコレクションを取り直す。
func (s *OrderSession) CreateOrder(ctx context.Context, in usecase.PlaceOrderInput) (usecase.OrderOutput, error) {
	out, err := s.orders.PlaceOrder(ctx, s.userID, in)
	if err != nil {
		return usecase.OrderOutput{}, err
	}
	if err := s.Refresh(ctx); err != nil {
		return usecase.OrderOutput{}, err
	}
	return out, nil
}

// UpdateStatus は同一注文の多重リクエストをin-flightガードで弾き、
// キャッシュで観測していたstatusを条件に遷移を投げる。
// 成功したらまずID一致でパッチし、その後全体を取り直す。
func (s *OrderSession) UpdateStatus(ctx context.Context, orderID string, target model.OrderStatus) (usecase.OrderOutput, error) {
	if err := s.acquire(orderID); err != nil {
		return usecase.OrderOutput{}, err
	}
	defer s.release(orderID)

	expected := ""
	if cached, ok := s.cache.Get(orderID); ok {
		expected = cached.Status
	}

	out, err := s.orders.UpdateStatus(ctx, s.userID, s.role, orderID, usecase.UpdateOrderStatusInput{
		Status:         string(target),
		ExpectedStatus: expected,
	})
	if err != nil {
		return usecase.OrderOutput{}, err
	}

	//楽観パッチ→権威ある再読込
	s.cache.Patch(out)
	if err := s.Refresh(ctx); err != nil {
		return usecase.OrderOutput{}, err
	}
	return out, nil
}

func (s *OrderSession) acquire(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[orderID]; busy {
		return ErrConcurrentOperation
	}
	s.inflight[orderID] = struct{}{}
	return nil
}

func (s *OrderSession) release(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, orderID)
}

func filterTerminal(orders []usecase.OrderOutput, terminal bool) []usecase.OrderOutput {
	out := make([]usecase.OrderOutput, 0, len(orders))
	for _, o := range orders {
		if model.OrderStatus(o.Status).IsTerminal() == terminal {
			out = append(out, o)
		}
	}
	return out
}
