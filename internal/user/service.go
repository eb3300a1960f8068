// Package user はユーザーの登録・ログイン・情報取得を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/geneva/internal/model"
	"github.com/hitoshi/geneva/internal/repository"
)

// Service はユーザー関連のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Login はAPIキーの有無でモードを切り替える単一エントリポイント。
//
// APIキーが指定された場合は新規登録として扱い、ユーザー名が既に
// 使用されていればUSERNAME_TAKENを返す。APIキーが空の場合は既存
// ユーザーへのログインとして扱い、未登録ならUSER_NOT_FOUNDを返す。
// 戻り値のboolは新規登録だったかどうかを示す。
func (s *Service) Login(ctx context.Context, username, apiKey string) (*model.User, bool, error) {
	existing, err := s.userRepo.FindByName(ctx, username)
	if err != nil {
		return nil, false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	if apiKey == "" {
		if existing == nil {
			return nil, false, model.NewUserNotFoundError(username)
		}
		slog.Info("ユーザーがログインしました", slog.String("username", username))
		return existing, false, nil
	}

	if existing != nil {
		return nil, false, model.NewUsernameTakenError(username)
	}

	newUser := &model.User{
		ID:        uuid.NewString(),
		Username:  username,
		APIKey:    apiKey,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, false, err
	}

	slog.Info("ユーザーを登録しました", slog.String("username", username))
	return newUser, true, nil
}

// GetInfo は指定ユーザーの公開情報を返す。APIキーの値自体は返さない。
// 未登録ユーザーはUSER_NOT_FOUNDを返す。
func (s *Service) GetInfo(ctx context.Context, username string) (*model.UserInfo, error) {
	user, err := s.userRepo.FindByName(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(username)
	}

	return &model.UserInfo{
		Username:  user.Username,
		HasAPIKey: user.HasAPIKey(),
		CreatedAt: user.CreatedAt,
	}, nil
}
