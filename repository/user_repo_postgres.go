package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"fleetledger/models"
)

// PostgresUserRepo stores accounts in Postgres (USER_STORE=postgres). Delegate
// grants live in their own table.
type PostgresUserRepo struct {
	DB *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{DB: db}
}

const userColumns = `user_id, phone, name, company, address, gst_number, role, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.UserID, &user.Phone, &user.Name, &user.CompanyName,
		&user.Address, &user.GSTNumber, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts the account; the unique phone index reports duplicates
func (r *PostgresUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO app_user (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.UserID, user.Phone, user.Name, user.CompanyName, user.Address, user.GSTNumber, user.Role, user.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrPhoneTaken
	}
	return err
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM app_user WHERE user_id=$1`, userID)
}

func (r *PostgresUserRepo) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM app_user WHERE phone=$1`, phone)
}

func (r *PostgresUserRepo) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if user.Delegates, err = r.delegates(ctx, user.UserID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PostgresUserRepo) delegates(ctx context.Context, userID string) ([]models.Delegate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT phone, role FROM user_delegate WHERE user_id=$1 ORDER BY phone`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Delegate{}
	for rows.Next() {
		var d models.Delegate
		if err := rows.Scan(&d.Phone, &d.Role); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateUser rewrites the profile and the delegate set in one transaction
func (r *PostgresUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE app_user SET name=$1, company=$2, address=$3, gst_number=$4, role=$5
		WHERE user_id=$6
	`, user.Name, user.CompanyName, user.Address, user.GSTNumber, user.Role, user.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_delegate WHERE user_id=$1`, user.UserID); err != nil {
		return err
	}
	for _, d := range user.Delegates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_delegate (user_id, phone, role) VALUES ($1, $2, $3)`,
			user.UserID, d.Phone, d.Role); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM app_user WHERE user_id=$1`, userID)
	return err
}

func (r *PostgresUserRepo) FindOwnersByDelegate(ctx context.Context, phone string) ([]*models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+userColumns+` FROM app_user
		WHERE user_id IN (SELECT user_id FROM user_delegate WHERE phone=$1)
	`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		owners = append(owners, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, u := range owners {
		if u.Delegates, err = r.delegates(ctx, u.UserID); err != nil {
			return nil, err
		}
	}
	return owners, nil
}

func (r *PostgresUserRepo) ListOwners(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM app_user WHERE role=$1`, models.RoleOwner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		owners = append(owners, user)
	}
	return owners, rows.Err()
}
