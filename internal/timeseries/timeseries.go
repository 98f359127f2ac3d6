// Package timeseries wraps the ClickHouse connection holding snapshot history.
package timeseries

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type Conn struct {
	chConn clickhouse.Conn
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

type Batch interface {
	Append(values ...any) error
	Send() error
}

// Connect connects to the ClickHouse database with the project environment variables.
func Connect() (*Conn, error) {
	address := fmt.Sprintf("%s:%s", os.Getenv("CLICKHOUSE_HOST"), os.Getenv("CLICKHOUSE_PORT"))
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{address},
		Auth: clickhouse.Auth{
			Database: os.Getenv("CLICKHOUSE_NAME"),
			Username: os.Getenv("CLICKHOUSE_USERNAME"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		},
		DialTimeout: time.Second * 5,
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	return &Conn{chConn: conn}, nil
}

// Close closes a database connection.
func (conn *Conn) Close() error {
	return conn.chConn.Close()
}

// Exec executes a database query.
func (conn *Conn) Exec(sql string, arguments ...any) error {
	return conn.chConn.Exec(context.Background(), sql, arguments...)
}

// Query executes a database query.
func (conn *Conn) Query(sql string, arguments ...any) (Rows, error) {
	return conn.chConn.Query(context.Background(), sql, arguments...)
}

// QueryRow executes a database query returning Row data.
func (conn *Conn) QueryRow(sql string, arguments ...any) Row {
	return conn.chConn.QueryRow(context.Background(), sql, arguments...)
}

// PrepareBatch prepares an insert batch for ClickHouse.
func (conn *Conn) PrepareBatch(sql string) (Batch, error) {
	return conn.chConn.PrepareBatch(context.Background(), sql)
}
