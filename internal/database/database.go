// Package database wraps the Postgres connection used for goldfolio.
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Conn struct {
	pool *pgxpool.Pool
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

var ErrNoRows = pgx.ErrNoRows

// Connect connects to the Postgres database with the project environment variables.
func Connect() (*Conn, error) {
	url := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)
	pool, err := pgxpool.Connect(context.Background(), url)

	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()

		return nil, err
	}

	return &Conn{pool: pool}, nil
}

// Close closes a database connection.
func (conn *Conn) Close() {
	conn.pool.Close()
}

// Exec executes a database query.
func (conn *Conn) Exec(sql string, arguments ...any) error {
	_, err := conn.pool.Exec(context.Background(), sql, arguments...)

	return err
}

// Query executes a database query.
func (conn *Conn) Query(sql string, arguments ...any) (Rows, error) {
	return conn.pool.Query(context.Background(), sql, arguments...)
}

// QueryRow executes a database query returning Row data.
func (conn *Conn) QueryRow(sql string, arguments ...any) Row {
	return conn.pool.QueryRow(context.Background(), sql, arguments...)
}

// Queryable defines an interface for a connection.
type Queryable interface {
	Exec(sql string, arguments ...any) error
	Query(sql string, arguments ...any) (Rows, error)
	QueryRow(sql string, arguments ...any) Row
}
