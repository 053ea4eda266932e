package user

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgconn"
	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/uuid"
)

const (
	mysqlDuplicateEntry = 1062
	pgUniqueViolation   = "23505"
)

// UserSQL gateway accounts stored through the SQL driver abstraction,
// statements use $N placeholders and are adapted for mysql by the driver
type UserSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ domain.UserRepository = &UserSQL{}

func NewUserRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *UserSQL {
	return &UserSQL{Conn, UUIDGenerator}
}

// FindByCredential query user by username, email or bound learner id, returns nil when none matches.
// Learner ids start at 1 so a zero LearnerID matches nothing.
func (repo *UserSQL) FindByCredential(ctx context.Context, post *domain.UserModel) (*domain.UserModel, error) {
	row, err := repo.Conn.QueryContext(ctx, `SELECT id, username, password, email, learner_id, login_retry, last_login
	FROM "user" WHERE username=$1 OR email=$2 OR learner_id=$3`, post.Username, post.Email, post.LearnerID)
	if err != nil {
		return nil, err
	}
	defer row.Close()

	if row.Next() {
		user := new(domain.UserModel)
		if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Email,
			&user.LearnerID, &user.LoginRetry, &user.LastLogin); err != nil {
			return nil, err
		}
		return user, nil
	}
	return nil, nil
}

func (repo *UserSQL) SaveUser(ctx context.Context, post *domain.UserModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	post.ID = id

	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO "user"(id, username, password, email, learner_id, last_login)
	VALUES($1,$2,$3,$4,$5,$6)`, post.ID, post.Username, post.Password, post.Email, post.LearnerID, post.LastLogin)
	if isDuplicateKey(err) {
		return domain.ErrDuplicatedUser
	}
	return err
}

func (repo *UserSQL) UpdateLogin(ctx context.Context, post *domain.UserModel) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE "user"
	SET login_retry=$1,
			last_login=$2
	WHERE id=$3`, post.LoginRetry, post.LastLogin, post.ID)
	return err
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	return false
}
