package usecase

import (
	"context"

	"identity_backend/internal/feature/users/domain/entity"
)

// UserFilter は任意のフィールドの組み合わせでユーザーを検索する条件です。
// ゼロ値のフィールドは無視され、設定されたフィールドはANDで結合されます。
type UserFilter struct {
	ID       uint
	Email    string
	Username string
}

// IsEmpty はどのフィールドも設定されていない場合にtrueを返します。
func (f UserFilter) IsEmpty() bool {
	return f.ID == 0 && f.Email == "" && f.Username == ""
}

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// FindByFields はfilterの全フィールドに一致するユーザーを1件返します。
	// 見つからない場合はErrUserNotFound、条件が空の場合はErrEmptyFilterを返します。
	FindByFields(ctx context.Context, filter UserFilter) (*entity.User, error)

	// FindConflict はemailまたはusernameを既に使用しているユーザーがいるか確認し、
	// 衝突したフィールド名（FieldEmail優先）を返します。衝突がなければ空文字を返します。
	FindConflict(ctx context.Context, email, username string) (string, error)

	// Insert は新規ユーザーを保存し、保存されたレコードを返します。
	// メールアドレスまたはユーザー名が重複する場合は*ConflictErrorを返します。
	Insert(ctx context.Context, user *entity.User) (*entity.User, error)
}

// CachedUserRepository はID検索にキャッシュを利用するUserRepositoryです。
type CachedUserRepository interface {
	UserRepository

	// GetByID は指定IDのユーザーを返します。キャッシュを先に参照します。
	GetByID(ctx context.Context, id uint) (*entity.User, error)
}
