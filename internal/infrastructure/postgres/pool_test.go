package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/pkg/config"
)

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(config.DBConfig{Host: "db", Port: 5433, User: "app", Password: "x", DBName: "ledger", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "ledger", pc.ConnConfig.Database)
	assert.Equal(t, int32(25), pc.MaxConns)
	assert.NotNil(t, pc.AfterConnect)

	_, err = poolConfig(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("timeout")))

	name, ok := uniqueConstraint(&pgconn.PgError{Code: "23505", ConstraintName: "products_barcode_uq"})
	assert.True(t, ok)
	assert.Equal(t, "products_barcode_uq", name)
}

func TestSchema_SentenciasSeparables(t *testing.T) {
	var stmts []string
	rec := recorder{exec: func(sql string) { stmts = append(stmts, sql) }}
	require.NoError(t, Migrate(t.Context(), rec))
	assert.Len(t, stmts, 8)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS products")
}

// recorder Querier que solo registra las sentencias ejecutadas.
type recorder struct {
	exec func(sql string)
}

func (r recorder) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.exec(sql)
	return pgconn.NewCommandTag("CREATE"), nil
}

func (r recorder) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no soportado")
}

func (r recorder) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}
