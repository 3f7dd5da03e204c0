// Package adapters はusersフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"identity_backend/internal/feature/users/domain/entity"
	"identity_backend/internal/feature/users/usecase"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// userGorm はUserRepositoryインターフェースのGORM実装です。
// 一意性はusersテーブルのユニークインデックスが最終的に保証します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// FindByFields はfilterの設定済みフィールドすべてに一致するユーザーを1件取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByFields(ctx context.Context, filter usecase.UserFilter) (*entity.User, error) {
	if filter.IsEmpty() {
		return nil, usecase.ErrEmptyFilter
	}

	q := r.db.WithContext(ctx).Model(&entity.User{})
	if filter.ID != 0 {
		q = q.Where("id = ?", filter.ID)
	}
	if filter.Email != "" {
		q = q.Where("email = ?", filter.Email)
	}
	if filter.Username != "" {
		q = q.Where("username = ?", filter.Username)
	}

	var u entity.User
	if err := q.Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user: %w", usecase.ErrUnavailable, err)
	}
	return &u, nil
}

// Insert はユーザーをデータベースに追加し、保存されたレコードを返します。
// メールアドレスまたはユーザー名が重複する場合、*usecase.ConflictErrorを返します。
func (r *userGorm) Insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u == nil {
		return nil, errors.New("user must not be nil")
	}

	// 事前チェックは早期リターン用。同時実行時の最終判定はユニークインデックスが行う
	field, err := r.FindConflict(ctx, u.Email, u.Username)
	if err != nil {
		return nil, err
	}
	if field != "" {
		return nil, &usecase.ConflictError{Field: field}
	}

	row := *u
	row.ID = 0
	err = r.db.WithContext(ctx).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Create(&row).Error
	if err != nil {
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: insert user: %w", usecase.ErrUnavailable, err)
		}
		if field := fieldFromConstraint(err); field != "" {
			return nil, &usecase.ConflictError{Field: field}
		}
		// The driver did not name the constraint; the winning row is committed, so look again.
		field, lookupErr := r.FindConflict(ctx, u.Email, u.Username)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if field == "" {
			field = usecase.FieldEmail
		}
		return nil, &usecase.ConflictError{Field: field}
	}

	// created_atはDBのデフォルト値で設定されるため、保存された行を読み直す
	var stored entity.User
	if err := r.db.WithContext(ctx).Take(&stored, row.ID).Error; err != nil {
		return nil, fmt.Errorf("%w: read inserted user: %w", usecase.ErrUnavailable, err)
	}
	return &stored, nil
}

// FindConflict は候補と同じメールアドレスまたはユーザー名を持つ既存ユーザーを探し、
// 衝突したフィールド名を返します。両方衝突した場合はemailを優先し、衝突がなければ空文字を返します。
func (r *userGorm) FindConflict(ctx context.Context, email, username string) (string, error) {
	var existing []entity.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "username").
		Where("email = ? OR username = ?", email, username).
		Limit(2).
		Find(&existing).Error
	if err != nil {
		return "", fmt.Errorf("%w: check existing user: %w", usecase.ErrUnavailable, err)
	}

	field := ""
	for _, e := range existing {
		if e.Email == email {
			return usecase.FieldEmail, nil
		}
		if e.Username == username {
			field = usecase.FieldUsername
		}
	}
	return field, nil
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// PostgreSQL (pgx) or from a dialect with gorm error translation enabled.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// fieldFromConstraint maps a PostgreSQL constraint name to the colliding field.
func fieldFromConstraint(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	name := pgErr.ConstraintName
	switch {
	case strings.Contains(name, "email"):
		return usecase.FieldEmail
	case strings.Contains(name, "username"):
		return usecase.FieldUsername
	}
	return ""
}
