package session_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"gasapp/internal/domain/model"
	"gasapp/internal/session"
	"gasapp/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var sessNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type sessFixture struct {
	sess       *session.OrderSession
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	products   *ProductRepoMock
	audit      *AuditRepoMock
}

func newSessFixture(userID string, role model.Role) *sessFixture {
	orders := &OrderRepoMock{}
	orderItems := &OrderItemRepoMock{}
	products := &ProductRepoMock{}
	audit := &AuditRepoMock{}

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orders,
		orderItems: orderItems,
		products:   products,
		auditLogs:  audit,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orderUC := usecase.NewOrderUsecase(tx, &seqIDGen{}, &fixedClock{t: sessNow}, 500, nil)
	providerUC := usecase.NewProviderOrderUsecase(tx, orderUC)

	return &sessFixture{
		sess:       session.NewOrderSession(userID, role, orderUC, providerUC),
		orders:     orders,
		orderItems: orderItems,
		products:   products,
		audit:      audit,
	}
}

func noItems(f *sessFixture) {
	f.orderItems.On("ListByOrderIDs", mock.Anything, mock.Anything).
		Return(map[string][]model.OrderItem{}, nil)
	f.orderItems.On("ListByOrderID", mock.Anything, mock.Anything).
		Return([]model.OrderItem{}, nil)
}

func TestSessionStart_ClientLoadsOwnOrders(t *testing.T) {
	f := newSessFixture("c1", model.RoleClient)
	noItems(f)

	f.orders.On("ListByCustomer", mock.Anything, "c1").Return([]model.Order{
		{ID: "o2", CustomerID: "c1", Status: model.OrderStatusDelivering},
		{ID: "o1", CustomerID: "c1", Status: model.OrderStatusDelivered},
	}, nil)

	err := f.sess.Start(context.Background())

	assert.NoError(t, err)
	outs := f.sess.Orders()
	if assert.Len(t, outs, 2) {
		//newest-firstの並びをそのまま保持する
		assert.Equal(t, "o2", outs[0].ID)
	}
	//ListAllは呼ばれない（clientは自分の注文だけ）
	f.orders.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestSessionStart_ProviderLoadsAllOrders(t *testing.T) {
	f := newSessFixture("p1", model.RoleProvider)
	noItems(f)

	f.orders.On("ListAll", mock.Anything).Return([]model.Order{
		{ID: "o1", CustomerID: "c1", Status: model.OrderStatusPending},
		{ID: "o2", CustomerID: "c2", Status: model.OrderStatusPending},
	}, nil)

	err := f.sess.Start(context.Background())

	assert.NoError(t, err)
	assert.Len(t, f.sess.Orders(), 2)
	f.orders.AssertNotCalled(t, "ListByCustomer", mock.Anything, mock.Anything)
}

func TestSessionViews_ActiveHistoryRecent(t *testing.T) {
	f := newSessFixture("c1", model.RoleClient)
	noItems(f)

	f.orders.On("ListByCustomer", mock.Anything, "c1").Return([]model.Order{
		{ID: "o4", CustomerID: "c1", Status: model.OrderStatusPending},
		{ID: "o3", CustomerID: "c1", Status: model.OrderStatusDelivering},
		{ID: "o2", CustomerID: "c1", Status: model.OrderStatusCancelled},
		{ID: "o1", CustomerID: "c1", Status: model.OrderStatusDelivered},
	}, nil)
	assert.NoError(t, f.sess.Start(context.Background()))

	active := f.sess.Active()
	if assert.Len(t, active, 2) {
		assert.Equal(t, "o4", active[0].ID)
		assert.Equal(t, "o3", active[1].ID)
	}

	hist := f.sess.History("")
	assert.Len(t, hist, 2)
	cancelled := f.sess.History(model.OrderStatusCancelled)
	if assert.Len(t, cancelled, 1) {
		assert.Equal(t, "o2", cancelled[0].ID)
	}

	recent := f.sess.Recent(3)
	if assert.Len(t, recent, 3) {
		assert.Equal(t, "o4", recent[0].ID)
	}
	assert.Len(t, f.sess.Recent(10), 4)
}

func TestSessionCreateOrder_ReloadsCollection(t *testing.T) {
	f := newSessFixture("c1", model.RoleClient)
	noItems(f)

	f.products.On("FindByID", mock.Anything, "prod-a").
		Return(model.Product{ID: "prod-a", Name: "Botija 6kg", Price: 1000, IsActive: true}, nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.orderItems.On("CreateBulk", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	//作成後のRefreshで新しい注文が入ってくる
	f.orders.On("ListByCustomer", mock.Anything, "c1").Return([]model.Order{
		{ID: "id-2", CustomerID: "c1", Status: model.OrderStatusPending, Subtotal: 2000, DeliveryFee: 500, TotalAmount: 2500},
	}, nil)

	out, err := f.sess.CreateOrder(context.Background(), usecase.PlaceOrderInput{
		Items:           []usecase.PlaceOrderItemInput{{ProductID: "prod-a", Quantity: 2}},
		DeliveryAddress: "Rua 1, Luanda",
		CustomerName:    "Ana",
		CustomerPhone:   "+244 900 000 000",
	})

	assert.NoError(t, err)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, int64(2500), out.TotalAmount)
	assert.Equal(t, 1, len(f.sess.Orders()))
	f.orders.AssertCalled(t, "ListByCustomer", mock.Anything, "c1")
}

func TestSessionUpdateStatus_ObservedStatusIsThePrecondition(t *testing.T) {
	f := newSessFixture("c1", model.RoleClient)
	noItems(f)

	//セッションはpendingを観測している
	f.orders.On("ListByCustomer", mock.Anything, "c1").Return([]model.Order{
		{ID: "o1", CustomerID: "c1", Status: model.OrderStatusPending},
	}, nil)
	assert.NoError(t, f.sess.Start(context.Background()))

	//裏で業者がconfirmedまで進めていた
	f.orders.On("FindByID", mock.Anything, "o1").
		Return(model.Order{ID: "o1", CustomerID: "c1", Status: model.OrderStatusConfirmed}, nil)

	_, err := f.sess.UpdateStatus(context.Background(), "o1", model.OrderStatusCancelled)

	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusConflict, he.Status)
	}
	//条件が崩れているので書き込みには進まない
	f.orders.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionUpdateStatus_PatchesThenReloads(t *testing.T) {
	f := newSessFixture("c1", model.RoleClient)
	noItems(f)

	pendingList := []model.Order{{ID: "o1", CustomerID: "c1", Status: model.OrderStatusPending}}
	cancelledList := []model.Order{{ID: "o1", CustomerID: "c1", Status: model.OrderStatusCancelled}}

	f.orders.On("ListByCustomer", mock.Anything, "c1").Return(pendingList, nil).Once()
	f.orders.On("FindByID", mock.Anything, "o1").
		Return(model.Order{ID: "o1", CustomerID: "c1", Status: model.OrderStatusPending}, nil)
	f.orders.On("UpdateStatus", mock.Anything, "o1",
		model.OrderStatusPending, model.OrderStatusCancelled, mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.orders.On("ListByCustomer", mock.Anything, "c1").Return(cancelledList, nil)

	assert.NoError(t, f.sess.Start(context.Background()))

	out, err := f.sess.UpdateStatus(context.Background(), "o1", model.OrderStatusCancelled)

	assert.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)

	outs := f.sess.Orders()
	if assert.Len(t, outs, 1) {
		assert.Equal(t, "cancelled", outs[0].Status)
	}
}

func TestSessionUpdateStatus_RejectsConcurrentRequestsOnSameOrder(t *testing.T) {
	f := newSessFixture("c1", model.RoleClient)
	noItems(f)

	f.orders.On("ListByCustomer", mock.Anything, "c1").Return([]model.Order{
		{ID: "o1", CustomerID: "c1", Status: model.OrderStatusPending},
	}, nil)
	assert.NoError(t, f.sess.Start(context.Background()))

	entered := make(chan struct{}, 1)
	release := make(chan struct{})

	f.orders.On("FindByID", mock.Anything, "o1").
		Run(func(args mock.Arguments) {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
		}).
		Return(model.Order{ID: "o1", CustomerID: "c1", Status: model.OrderStatusPending}, nil)
	f.orders.On("UpdateStatus", mock.Anything, "o1",
		model.OrderStatusPending, model.OrderStatusCancelled, mock.Anything, mock.Anything).Return(nil)
	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.sess.UpdateStatus(context.Background(), "o1", model.OrderStatusCancelled)
	}()

	//1本目がリポジトリまで到達してから2本目を投げる
	<-entered
	_, err := f.sess.UpdateStatus(context.Background(), "o1", model.OrderStatusCancelled)
	assert.ErrorIs(t, err, session.ErrConcurrentOperation)

	close(release)
	wg.Wait()
	assert.NoError(t, firstErr)
}
