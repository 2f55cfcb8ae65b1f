package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vigilo/src/modules/monitor"
	"vigilo/src/modules/shared"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"
)

const defaultQuery = "SELECT 1"

// SQLExecutor serves the mysql, postgres and sqlserver monitor types by
// running the configured query (SELECT 1 by default) and timing it.
type SQLExecutor struct {
	driver string
}

func NewSQLExecutor(driver string) *SQLExecutor {
	return &SQLExecutor{driver: driver}
}

func (e *SQLExecutor) open(m *monitor.Model) (*sql.DB, error) {
	switch e.driver {
	case "mysql":
		return sql.Open("mysql", m.DatabaseConnectionString)
	case "postgres":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(m.DatabaseConnectionString))), nil
	case "sqlserver":
		return sql.Open("sqlserver", m.DatabaseConnectionString)
	default:
		return nil, fmt.Errorf("unknown sql driver %q", e.driver)
	}
}

func (e *SQLExecutor) Execute(ctx context.Context, m *monitor.Model) (*Result, error) {
	start := time.Now().UTC()

	db, err := e.open(m)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	query := m.DatabaseQuery
	if query == "" {
		query = defaultQuery
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Status:    shared.MonitorStatusUp,
		Message:   "query executed successfully",
		Ping:      pingMs(time.Since(start)),
		StartTime: start,
		EndTime:   time.Now().UTC(),
	}, nil
}
