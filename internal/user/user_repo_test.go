package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyRows struct{}

func (emptyRows) Next() bool                     { return false }
func (emptyRows) Scan(dest ...interface{}) error { return nil }
func (emptyRows) Close() error                   { return nil }

// recordingDB captures statements, inserts fail with execErr
type recordingDB struct {
	driver.ITransactionalDB
	query   string
	args    []interface{}
	execErr error
}

func (rd *recordingDB) QueryContext(ctx context.Context, query string, args ...interface{}) (driver.ISQLRows, error) {
	rd.query, rd.args = query, args
	return emptyRows{}, nil
}

func (rd *recordingDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	rd.query, rd.args = query, args
	return nil, rd.execErr
}

type fixedID string

func (f fixedID) Generate() (string, error) { return string(f), nil }

func TestFindByCredential_MatchesLearnerID(t *testing.T) {
	db := new(recordingDB)
	repo := NewUserRepository(db, fixedID("abc"))

	user, err := repo.FindByCredential(context.Background(), &domain.UserModel{Username: "mallory", Email: "m@example.com", LearnerID: 12})
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Contains(t, db.query, "learner_id=$3")
	assert.Equal(t, []interface{}{"mallory", "m@example.com", 12}, db.args)
}

func TestSaveUser_UniqueViolation(t *testing.T) {
	db := &recordingDB{execErr: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '12' for key 'learner_id'"}}
	repo := NewUserRepository(db, fixedID("abc"))

	err := repo.SaveUser(context.Background(), &domain.UserModel{Username: "mallory", LearnerID: 12})
	assert.True(t, errors.Is(err, domain.ErrDuplicatedUser))
}
