package infra

import (
	"database/sql"
	"fmt"

	"vigilo/src/config"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// ProvideDB opens the configured database and wraps it in bun.
func ProvideDB(cfg *config.Config) (*bun.DB, error) {
	var db *bun.DB

	switch cfg.DBType {
	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", cfg.DBName))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite writes must be serialized
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case "mysql":
		mycfg := mysql.NewConfig()
		mycfg.User = cfg.DBUser
		mycfg.Passwd = cfg.DBPass
		mycfg.Net = "tcp"
		mycfg.Addr = fmt.Sprintf("%s:%s", cfg.DBHost, cfg.DBPort)
		mycfg.DBName = cfg.DBName
		mycfg.ParseTime = true
		sqldb, err := sql.Open("mysql", mycfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		db = bun.NewDB(sqldb, mysqldialect.New())
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}

	if cfg.LogLevel == "debug" {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}
