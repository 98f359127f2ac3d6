package store

import (
	"time"

	"github.com/toman-labs/goldfolio/internal/model"
	"github.com/toman-labs/goldfolio/internal/timeseries"
)

// Snapshots stores the append-only valuation history.
type Snapshots struct {
	conn *timeseries.Conn
}

func NewSnapshots(conn *timeseries.Conn) *Snapshots {
	return &Snapshots{conn: conn}
}

var snapshotTableSchema = `
create table if not exists portfolio_snapshots (
	user_id Int64,
	time DateTime64(9),
	total Decimal(38, 2),
	usd_value Decimal(38, 2),
	eur_value Decimal(38, 2),
	full_coin_value Decimal(38, 2),
	half_coin_value Decimal(38, 2),
	quarter_coin_value Decimal(38, 2),
	crypto_value Decimal(38, 2)
)
engine = MergeTree()
order by (user_id, time)
`

// EnsureSchema creates the snapshot table when it does not exist yet.
func (store *Snapshots) EnsureSchema() error {
	return store.conn.Exec(snapshotTableSchema)
}

var snapshotInsertQuery = `
insert into portfolio_snapshots
	(user_id, time, total, usd_value, eur_value, full_coin_value,
	 half_coin_value, quarter_coin_value, crypto_value)
values (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// AppendSnapshot records a single snapshot.
func (store *Snapshots) AppendSnapshot(snapshot *model.Snapshot) error {
	return store.conn.Exec(
		snapshotInsertQuery,
		snapshot.UserID,
		snapshot.Time,
		snapshot.Total,
		snapshot.USD,
		snapshot.EUR,
		snapshot.FullCoin,
		snapshot.HalfCoin,
		snapshot.QuarterCoin,
		snapshot.Crypto,
	)
}

// AppendSnapshots records a batch of snapshots in one insert.
func (store *Snapshots) AppendSnapshots(snapshots []model.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := store.conn.PrepareBatch(snapshotInsertQuery)

	if err != nil {
		return err
	}

	for i := range snapshots {
		snapshot := &snapshots[i]

		if err := batch.Append(
			snapshot.UserID,
			snapshot.Time,
			snapshot.Total,
			snapshot.USD,
			snapshot.EUR,
			snapshot.FullCoin,
			snapshot.HalfCoin,
			snapshot.QuarterCoin,
			snapshot.Crypto,
		); err != nil {
			return err
		}
	}

	return batch.Send()
}

var snapshotQuery = `
select
	user_id,
	time,
	total,
	usd_value,
	eur_value,
	full_coin_value,
	half_coin_value,
	quarter_coin_value,
	crypto_value
from portfolio_snapshots
`

func scanSnapshot(row timeseries.Row, snapshot *model.Snapshot) error {
	return row.Scan(
		&snapshot.UserID,
		&snapshot.Time,
		&snapshot.Total,
		&snapshot.USD,
		&snapshot.EUR,
		&snapshot.FullCoin,
		&snapshot.HalfCoin,
		&snapshot.QuarterCoin,
		&snapshot.Crypto,
	)
}

// ListSnapshotsInRange loads snapshots taken in [start, end], oldest first.
func (store *Snapshots) ListSnapshotsInRange(userID int64, start time.Time, end time.Time) ([]model.Snapshot, error) {
	rows, err := store.conn.Query(
		snapshotQuery+"where user_id = ? and time >= ? and time <= ? order by time",
		userID,
		start,
		end,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	snapshots := []model.Snapshot{}

	for rows.Next() {
		snapshot := model.Snapshot{}

		if err := scanSnapshot(rows, &snapshot); err != nil {
			return nil, err
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}
