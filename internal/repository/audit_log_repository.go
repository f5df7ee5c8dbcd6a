package repository

import (
	"context"

	"gasapp/internal/domain/model"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.AuditLog, error)
}
