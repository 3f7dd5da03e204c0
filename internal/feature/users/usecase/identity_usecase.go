package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"identity_backend/internal/feature/users/domain/entity"
)

// dummyPassword はタイミング均等化用ハッシュの元になる値です。
const dummyPassword = "timing-equalization-placeholder"

// PasswordHasher はパスワードのハッシュ化と検証を行います。
// Goの慣例に従い、インターフェースはプロバイダー（platform/password）ではなくコンシューマー（usecase）が定義します。
type PasswordHasher interface {
	// Hash はソルト付きの一方向エンコード結果を返します。
	Hash(plaintext string) (string, error)
	// Verify はplaintextがencodedと一致するかを返します。不正な形式の場合はfalseです。
	Verify(encoded, plaintext string) bool
}

// TokenIssuer は署名付きセッショントークンを発行します。
type TokenIssuer interface {
	// Issue は指定ユーザーに紐づくトークンを返します。
	Issue(subjectID uint, username string) (string, error)
}

// SignUpInput はバリデーション済みのサインアップ要求です。
type SignUpInput struct {
	Email     string
	Username  string
	Password  entity.Plaintext
	FullName  string
	BirthDate time.Time
}

// identityUsecase はサインアップ・サインイン・プロフィール取得を実装します。
type identityUsecase struct {
	users  CachedUserRepository
	hasher PasswordHasher
	tokens TokenIssuer

	dummyHash string
}

// NewIdentityUsecase はidentityUsecaseの新しいインスタンスを生成します。
// 存在しないユーザーでのサインイン用に、ダミーハッシュをここで一度だけ生成します。
func NewIdentityUsecase(users CachedUserRepository, hasher PasswordHasher, tokens TokenIssuer) *identityUsecase {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		slog.Warn("failed to prepare dummy hash", "error", err)
	}
	return &identityUsecase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}
}

// SignUp は重複を確認した後にパスワードをハッシュ化し、新規ユーザーを保存します。
// - メールアドレスまたはユーザー名が使用済みの場合、ハッシュ化せずに*ConflictErrorを返却
// - 事前確認をすり抜けた同時登録はInsertが同じ*ConflictErrorに変換
func (u *identityUsecase) SignUp(ctx context.Context, in SignUpInput) (*entity.User, error) {
	field, err := u.users.FindConflict(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if field != "" {
		return nil, &ConflictError{Field: field}
	}

	hashed, err := u.hasher.Hash(string(in.Password))
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	in.Password = ""

	fullName := in.FullName
	birthDate := in.BirthDate
	user := &entity.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: entity.PasswordHash(hashed),
		FullName:     &fullName,
		BirthDate:    &birthDate,
	}

	created, err := u.users.Insert(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user created", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// SignIn はユーザー名とパスワードで認証し、セッショントークンを返します。
// ユーザーが存在しない場合もハッシュ検証を1回行い、失敗経路の処理時間を揃えます。
func (u *identityUsecase) SignIn(ctx context.Context, username string, password entity.Plaintext) (string, error) {
	user, err := u.users.FindByFields(ctx, UserFilter{Username: username})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = u.hasher.Verify(u.dummyHash, string(password))
		}
		return "", err
	}

	if !u.hasher.Verify(string(user.PasswordHash), string(password)) {
		return "", ErrInvalidCredentials
	}

	token, err := u.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// GetProfile は検証済みトークンが指すユーザーを返します。
func (u *identityUsecase) GetProfile(ctx context.Context, subjectID uint) (*entity.User, error) {
	user, err := u.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
