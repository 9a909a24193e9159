package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"userconsole"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ Users = (*UserRepository)(nil)

const (
	insertUserSQL     = `INSERT INTO users (name, email, type, password_hash) VALUES (?, ?, ?, ?)`
	selectUserByIDSQL = `SELECT id, name, email, type, password_hash FROM users WHERE id = ?`
	selectUserByEmail = `SELECT id, name, email, type, password_hash FROM users WHERE email = ?`
	selectUsersSQL    = `SELECT id, name, email, type FROM users ORDER BY id`
	updateUserSQL     = `UPDATE users SET name = ?, email = ?, type = ? WHERE id = ?`
	updateUserPassSQL = `UPDATE users SET name = ?, email = ?, type = ?, password_hash = ? WHERE id = ?`
	deleteUserSQL     = `DELETE FROM users WHERE id = ?`
	countUsersSQL     = `SELECT COUNT(*) FROM users`
)

// isUniqueViolation recognises sqlite's unique constraint error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts a user and returns its id.
func (r *UserRepository) Create(ctx context.Context, u userconsole.User, passwordHash string) (int, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Name, u.Email, string(u.Type), passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user %q: %w", u.Email, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for user %q: %w", u.Email, err)
	}
	return int(lastID), nil
}

// GetByID returns (nil, nil) when no such user exists.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*StoredUser, error) {
	u, err := scanStoredUser(r.db.QueryRowContext(ctx, selectUserByIDSQL, id))
	if err != nil {
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return u, nil
}

// GetByEmail returns (nil, nil) when no such user exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*StoredUser, error) {
	u, err := scanStoredUser(r.db.QueryRowContext(ctx, selectUserByEmail, email))
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", email, err)
	}
	return u, nil
}

func scanStoredUser(row *sql.Row) (*StoredUser, error) {
	var u StoredUser
	var typ string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &typ, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Type = userconsole.UserType(typ)
	return &u, nil
}

// List returns every user ordered by id, without password hashes.
func (r *UserRepository) List(ctx context.Context) ([]userconsole.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := []userconsole.User{}
	for rows.Next() {
		var u userconsole.User
		var typ string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &typ); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Type = userconsole.UserType(typ)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Update writes ch to user id. It reports false when the user does not exist.
func (r *UserRepository) Update(ctx context.Context, id int, ch UserChanges) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if ch.PasswordHash != nil {
		res, err = r.db.ExecContext(ctx, updateUserPassSQL, ch.Name, ch.Email, string(ch.Type), *ch.PasswordHash, id)
	} else {
		res, err = r.db.ExecContext(ctx, updateUserSQL, ch.Name, ch.Email, string(ch.Type), id)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicateEmail
		}
		return false, fmt.Errorf("update user %d: %w", id, err)
	}
	return affected(res, id)
}

// Delete removes user id. It reports false when the user does not exist.
func (r *UserRepository) Delete(ctx context.Context, id int) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteUserSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", id, err)
	}
	return affected(res, id)
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countUsersSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func affected(res sql.Result, id int) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for user %d: %w", id, err)
	}
	return n > 0, nil
}
