// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/geneva/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByName は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が既に使用されている場合は*model.APIError（USERNAME_TAKEN）を返す。
	Create(ctx context.Context, user *model.User) error
}

// QueryRepository はクエリ履歴の永続化インターフェース。
type QueryRepository interface {
	// Create はクエリ履歴を1件追記する。履歴は以後変更されない。
	Create(ctx context.Context, query *model.UserQuery) error

	// ListByUserID は指定ユーザーのクエリ履歴を挿入順（created_at昇順）で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.UserQuery, error)
}
