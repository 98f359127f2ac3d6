// Package store persists transactions in Postgres and snapshots in the
// ClickHouse time series.
package store

import (
	"time"

	"github.com/toman-labs/goldfolio/internal/database"
	"github.com/toman-labs/goldfolio/internal/model"
)

// Investments stores the append-only transaction history.
type Investments struct {
	conn *database.Conn
}

func NewInvestments(conn *database.Conn) *Investments {
	return &Investments{conn: conn}
}

var investmentQuery = `
select id, user_id, asset_type, amount, currency, price, operation, date
from investments
`

func scanInvestment(row database.Row, transaction *model.Transaction) error {
	var asset string
	var operation string

	if err := row.Scan(
		&transaction.ID,
		&transaction.UserID,
		&asset,
		&transaction.Amount,
		&transaction.Currency,
		&transaction.Price,
		&operation,
		&transaction.Date,
	); err != nil {
		return err
	}

	transaction.Asset = model.AssetType(asset)
	transaction.Operation = model.Operation(operation)

	return nil
}

// ListByUser loads a user's whole history, oldest first.
func (store *Investments) ListByUser(userID int64) ([]model.Transaction, error) {
	var transactions []model.Transaction

	err := model.LoadList(
		store.conn,
		&transactions,
		20,
		scanInvestment,
		investmentQuery+"where user_id = $1 order by date, id",
		userID,
	)

	return transactions, err
}

// ListByUserInRange loads a user's transactions dated in [start, end].
func (store *Investments) ListByUserInRange(userID int64, start time.Time, end time.Time) ([]model.Transaction, error) {
	var transactions []model.Transaction

	err := model.LoadList(
		store.conn,
		&transactions,
		20,
		scanInvestment,
		investmentQuery+"where user_id = $1 and date >= $2 and date <= $3 order by date, id",
		userID,
		start,
		end,
	)

	return transactions, err
}

// ListByUserPage loads one page of a user's history, newest first.
func (store *Investments) ListByUserPage(userID int64, page int, size int) ([]model.Transaction, error) {
	var transactions []model.Transaction

	err := model.LoadList(
		store.conn,
		&transactions,
		size,
		scanInvestment,
		investmentQuery+"where user_id = $1 order by date desc, id desc limit $2 offset $3",
		userID,
		size,
		page*size,
	)

	return transactions, err
}

// CountByUser counts a user's recorded transactions.
func (store *Investments) CountByUser(userID int64) (int, error) {
	row := store.conn.QueryRow("select count(*) from investments where user_id = $1", userID)

	var count int
	err := row.Scan(&count)

	return count, err
}

// ListUserIDs lists every user with at least one recorded transaction.
func (store *Investments) ListUserIDs() ([]int64, error) {
	var userIDs []int64

	err := model.LoadList(
		store.conn,
		&userIDs,
		20,
		func(row database.Row, userID *int64) error {
			return row.Scan(userID)
		},
		"select distinct user_id from investments order by user_id",
	)

	return userIDs, err
}

// Append records a transaction and fills in its generated ID.
func (store *Investments) Append(transaction *model.Transaction) error {
	row := store.conn.QueryRow(
		`insert into investments
			(user_id, asset_type, amount, currency, price, operation, date)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id`,
		transaction.UserID,
		string(transaction.Asset),
		transaction.Amount,
		transaction.Currency,
		transaction.Price,
		string(transaction.Operation),
		transaction.Date,
	)

	return row.Scan(&transaction.ID)
}
