package db

import (
	"time"

	"linkhub/integrator/internal/logging"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// InitPostgres connects with sqlx, retrying while the database starts up
func InitPostgres(dsn string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		logging.Warn("Postgres not ready, retrying", "attempt", i+1, "error", err.Error())
		time.Sleep(500 * time.Millisecond)
	}
	return nil, err
}
