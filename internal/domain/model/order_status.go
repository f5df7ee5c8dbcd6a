package model

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// deliveringに入った時点からの配達目安
const EstimatedDeliveryLead = 60 * time.Minute

// 前進ルート（一本道）。cancelledへの分岐はroleTransitionsで管理する。
var forwardFlow = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusConfirmed,
	OrderStatusConfirmed:  OrderStatusPreparing,
	OrderStatusPreparing:  OrderStatusDelivering,
	OrderStatusDelivering: OrderStatusDelivered,
}

// ロール別に許可する遷移の表。
// client: pendingのキャンセルだけ。
// provider: 前進すべて＋pending/confirmedのキャンセル。
// preparing以降のキャンセルは誰にも許可しない（作業着手後の一方的取消は不可）。
var roleTransitions = map[Role]map[OrderStatus][]OrderStatus{
	RoleClient: {
		OrderStatusPending: {OrderStatusCancelled},
	},
	RoleProvider: {
		OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed:  {OrderStatusPreparing, OrderStatusCancelled},
		OrderStatusPreparing:  {OrderStatusDelivering},
		OrderStatusDelivering: {OrderStatusDelivered},
	},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusDelivering, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal は以後一切の遷移を受け付けない状態かどうか。
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Next は唯一の前進遷移先を返す。終端ならfalse。
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := forwardFlow[s]
	return next, ok
}

// CanTransition はロール表にある遷移だけを許可する。
func CanTransition(role Role, from OrderStatus, to OrderStatus) bool {
	table, ok := roleTransitions[role]
	if !ok {
		return false
	}
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionError のReason
const (
	TransitionReasonIllegal      = "illegal"
	TransitionReasonTerminal     = "terminal"
	TransitionReasonUnauthorized = "unauthorized"
)

type TransitionError struct {
	From   OrderStatus
	To     OrderStatus
	Role   Role
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s (%s): %s", e.From, e.To, e.Role, e.Reason)
}

// ApplyTransition は遷移を検証して適用後のOrderを返す。元のOrderは変更しない。
//   - 終端ステータスからの遷移はすべてterminal（同じ値の再送も含む）
//   - 非終端で同じ値への再送はno-opとして成功（リトライの二重送信対策）
//   - 表にない遷移はillegal、表にはあるがロールが違うものはunauthorized
//
// deliveringに入るときはEstimatedDeliveryが未設定なら埋める。
func ApplyTransition(o Order, role Role, target OrderStatus, now time.Time) (Order, error) {
	if o.Status.IsTerminal() {
		return o, &TransitionError{From: o.Status, To: target, Role: role, Reason: TransitionReasonTerminal}
	}
	if target == o.Status {
		return o, nil
	}
	if !target.IsValid() || !structurallyLegal(o.Status, target) {
		return o, &TransitionError{From: o.Status, To: target, Role: role, Reason: TransitionReasonIllegal}
	}
	if !CanTransition(role, o.Status, target) {
		return o, &TransitionError{From: o.Status, To: target, Role: role, Reason: TransitionReasonUnauthorized}
	}

	o.Status = target
	if target == OrderStatusDelivering && o.EstimatedDelivery == nil {
		eta := now.Add(EstimatedDeliveryLead)
		o.EstimatedDelivery = &eta
	}
	return o, nil
}

// structurallyLegal は状態機械としてあり得る遷移かどうか。
// 前進は一本道、キャンセルは非終端ならどこからでも「要求としては」あり得る
// （誰に許すかはロール表の仕事。preparing以降のキャンセル要求は
// ロール表に無いのでunauthorizedに落ちる）。
func structurallyLegal(from OrderStatus, to OrderStatus) bool {
	if next, ok := from.Next(); ok && next == to {
		return true
	}
	return to == OrderStatusCancelled && !from.IsTerminal()
}
