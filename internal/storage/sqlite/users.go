package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iBySnoW/BeFriendBackend/internal/models"
)

const userCols = `id, email, username, password_hash, display_name, avatar_url, provider, provider_id,
	email_verified, last_login, status, role, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var passwordHash, avatar, provider, providerID sql.NullString
	var lastLogin sql.NullInt64
	var status, role string
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&u.ID, &u.Email, &u.Username, &passwordHash, &u.DisplayName, &avatar, &provider, &providerID,
		&u.EmailVerified, &lastLogin, &status, &role, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash.String
	u.AvatarURL = avatar.String
	u.Provider = provider.String
	u.ProviderID = providerID.String
	u.LastLogin = timePtr(lastLogin)
	u.Status = models.UserStatus(status)
	u.Role = models.UserRole(role)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return &u, nil
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	now := s.now().UTC()
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, username, password_hash, display_name, avatar_url, provider, provider_id,
			email_verified, last_login, status, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		nullString(user.PasswordHash),
		user.DisplayName,
		nullString(user.AvatarURL),
		nullString(user.Provider),
		nullString(user.ProviderID),
		user.EmailVerified,
		nullUnix(user.LastLogin),
		string(user.Status),
		string(user.Role),
		unix(now),
		unix(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.ID = id
	user.CreatedAt = fromUnix(unix(now))
	user.UpdatedAt = user.CreatedAt
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UsernameExists reports whether the username is already taken.
func (s *SQLiteStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username = ?`, username).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return true, nil
}

// FindUsersByEmailOrProvider returns users matching the email or the
// provider pair, lowest ID first.
func (s *SQLiteStore) FindUsersByEmailOrProvider(ctx context.Context, email, provider, providerID string) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE email = ? OR (provider = ? AND provider_id = ?)
		ORDER BY id`,
		email, provider, providerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find users by email or provider: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of patch and returns the updated row.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	if patch.IsEmpty() {
		return s.GetUserByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	if patch.Provider != nil {
		sets = append(sets, "provider = ?")
		args = append(args, nullString(*patch.Provider))
	}
	if patch.ProviderID != nil {
		sets = append(sets, "provider_id = ?")
		args = append(args, nullString(*patch.ProviderID))
	}
	if patch.EmailVerified != nil {
		sets = append(sets, "email_verified = ?")
		args = append(args, *patch.EmailVerified)
	}
	if patch.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, nullString(*patch.AvatarURL))
	}
	if patch.LastLogin != nil {
		sets = append(sets, "last_login = ?")
		args = append(args, unix(*patch.LastLogin))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*patch.Role))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, unix(s.now()), id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", translateError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, notFound("user", id)
	}

	return s.GetUserByID(ctx, id)
}
