package model

import "time"

type AuditAction string

const (
	AuditActionCreateOrder       AuditAction = "CREATE_ORDER"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

// AuditLog は「誰がいつ注文をどう動かしたか」の記録。
// 複数アクターが同じ注文を触るので、争いになったとき追えるようにする。
type AuditLog struct {
	ID          int64       `gorm:"primaryKey;autoIncrement"`
	ActorUserID string      `gorm:"type:uuid;not null;index"`
	ActorRole   Role        `gorm:"type:varchar(20);not null"`
	Action      AuditAction `gorm:"type:varchar(40);not null"`
	OrderID     string      `gorm:"type:uuid;not null;index"`
	BeforeJSON  string      `gorm:"type:text"`
	AfterJSON   string      `gorm:"type:text"`
	CreatedAt   time.Time   `gorm:"not null;autoCreateTime"`
}
