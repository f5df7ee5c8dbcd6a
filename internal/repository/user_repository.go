package repository

import (
	"context"
	"errors"

	"gasapp/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// email一意制約に当たった（事前チェックをすり抜けた同時登録）
var ErrDuplicateEmail = errors.New("email already exists")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 最終ログインの更新など
	Update(ctx context.Context, user *model.User) error
}
