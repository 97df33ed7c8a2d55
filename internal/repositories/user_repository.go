package repositories

import (
	"database/sql"
	"time"

	"kolboard/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	Update(user *models.User) error
	Delete(id int) error
	List(limit, offset int) ([]*models.User, error)
	GetByEmail(email string) (*models.User, error)

	// refresh helpers
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (full_name, email, password_hash, role_id, refresh_token, refresh_expires_at, refresh_revoked)
		VALUES ($1, $2, $3, $4, NULL, NULL, FALSE)
		RETURNING id
	`
	return r.DB.QueryRow(q, user.FullName, user.Email, user.PasswordHash, user.RoleID).Scan(&user.ID)
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		roleID sql.NullInt64
		rt     sql.NullString
		rte    sql.NullTime
		rr     sql.NullBool
	)
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &roleID,
		&rt, &rte, &rr,
	)
	if err != nil {
		return nil, err
	}
	if roleID.Valid {
		u.RoleID = int(roleID.Int64)
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	if rr.Valid {
		u.RefreshRevoked = rr.Bool
	}
	return u, nil
}

const userColumns = `id, full_name, email, password_hash, role_id, refresh_token, refresh_expires_at, refresh_revoked`

func (r *userRepository) GetByID(id int) (*models.User, error) {
	return r.scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	return r.scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE refresh_token=$1`, token))
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET full_name=$1, email=$2, password_hash=$3, role_id=$4
		WHERE id=$5
	`
	_, err := r.DB.Exec(q, user.FullName, user.Email, user.PasswordHash, user.RoleID, user.ID)
	return err
}

func (r *userRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	const q = `
		SELECT id, full_name, email, role_id
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.User
	for rows.Next() {
		u := &models.User{}
		var roleID sql.NullInt64
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &roleID); err != nil {
			return nil, err
		}
		if roleID.Valid {
			u.RoleID = int(roleID.Int64)
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *userRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.DB.Exec(q, token, expiresAt, userID)
	return err
}

// RotateRefresh swaps the stored token atomically; returns nil user when
// the old token no longer matches (already rotated or revoked).
func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE refresh_token=$3 AND NOT refresh_revoked
		RETURNING ` + userColumns
	return r.scanUser(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
}

func (r *userRepository) ClearRefresh(userID int) error {
	const q = `
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`
	_, err := r.DB.Exec(q, userID)
	return err
}
