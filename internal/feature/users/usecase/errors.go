// Package usecase はusersフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict はすべての*ConflictErrorにマッチします。
	ErrConflict = errors.New("user already exists")

	// ErrUserNotFound は検索条件に一致するユーザーが存在しない場合に返されます。
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials はパスワードが保存済みハッシュと一致しない場合に返されます。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound は有効なトークンの対象ユーザーが既に存在しない場合にGetProfileが返します。
	ErrNotFound = errors.New("profile not found")

	// ErrUnavailable はストアの障害をラップします。
	ErrUnavailable = errors.New("store unavailable")

	// ErrEmptyFilter は条件を1つも指定せずに検索した場合に返されます。
	ErrEmptyFilter = errors.New("user filter has no fields set")
)

// ConflictErrorが報告する重複フィールド
const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// ConflictError はサインアップ時に重複したユニークフィールドを表します。
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("User with this %s already exists", e.Field)
}

// Unwrap により errors.Is(err, ErrConflict) がマッチします。
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
