package portfolio

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toman-labs/goldfolio/internal/model"
	"github.com/toman-labs/goldfolio/internal/price"
)

// memoryStore keeps transactions and snapshots in slices, mirroring the SQL
// store's ordering guarantees.
type memoryStore struct {
	transactions []model.Transaction
	snapshots    []model.Snapshot
	nextID       int64
}

func (store *memoryStore) ListByUser(userID int64) ([]model.Transaction, error) {
	var result []model.Transaction

	for _, transaction := range store.transactions {
		if transaction.UserID == userID {
			result = append(result, transaction)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

func (store *memoryStore) ListByUserInRange(userID int64, start time.Time, end time.Time) ([]model.Transaction, error) {
	all, _ := store.ListByUser(userID)
	var result []model.Transaction

	for _, transaction := range all {
		if !transaction.Date.Before(start) && !transaction.Date.After(end) {
			result = append(result, transaction)
		}
	}

	return result, nil
}

func (store *memoryStore) ListByUserPage(userID int64, page int, size int) ([]model.Transaction, error) {
	all, _ := store.ListByUser(userID)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})

	low := page * size

	if low >= len(all) {
		return nil, nil
	}

	high := low + size

	if high > len(all) {
		high = len(all)
	}

	return all[low:high], nil
}

func (store *memoryStore) CountByUser(userID int64) (int, error) {
	all, _ := store.ListByUser(userID)

	return len(all), nil
}

func (store *memoryStore) Append(transaction *model.Transaction) error {
	store.nextID++
	transaction.ID = store.nextID
	store.transactions = append(store.transactions, *transaction)

	return nil
}

func (store *memoryStore) AppendSnapshot(snapshot *model.Snapshot) error {
	store.snapshots = append(store.snapshots, *snapshot)

	return nil
}

func (store *memoryStore) ListSnapshotsInRange(userID int64, start time.Time, end time.Time) ([]model.Snapshot, error) {
	var result []model.Snapshot

	for _, snapshot := range store.snapshots {
		if snapshot.UserID == userID && !snapshot.Time.Before(start) && !snapshot.Time.After(end) {
			result = append(result, snapshot)
		}
	}

	return result, nil
}

func testPrices() price.Config {
	return price.Config{
		Defaults: map[model.AssetType]decimal.Decimal{
			model.AssetUSD:         decimal.NewFromInt(60000),
			model.AssetEUR:         decimal.NewFromInt(65000),
			model.AssetFullCoin:    decimal.NewFromInt(45000000),
			model.AssetHalfCoin:    decimal.NewFromInt(23000000),
			model.AssetQuarterCoin: decimal.NewFromInt(13000000),
			model.AssetCrypto:      decimal.NewFromInt(4000000000),
		},
		RefreshInterval: time.Hour,
	}
}

func newTestService() (*Service, *memoryStore) {
	store := &memoryStore{}

	return NewService(store, store, price.NewCache(testPrices(), nil)), store
}

func record(t *testing.T, service *Service, userID int64, asset model.AssetType, amount, currency, price string, operation model.Operation, date time.Time) {
	t.Helper()

	err := service.RecordTransaction(&model.Transaction{
		UserID:    userID,
		Asset:     asset,
		Amount:    decimal.RequireFromString(amount),
		Currency:  currency,
		Price:     decimal.RequireFromString(price),
		Operation: operation,
		Date:      date,
	})
	require.NoError(t, err)
}

var baseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRecordTransactionFillsZeroDate(t *testing.T) {
	t.Parallel()

	service, store := newTestService()

	err := service.RecordTransaction(&model.Transaction{
		UserID:    1,
		Asset:     model.AssetUSD,
		Amount:    decimal.NewFromInt(10),
		Currency:  "TOMAN",
		Price:     decimal.NewFromInt(600000),
		Operation: model.OperationBuy,
	})
	require.NoError(t, err)

	require.Len(t, store.transactions, 1)
	assert.False(t, store.transactions[0].Date.IsZero())
	assert.Equal(t, int64(1), store.transactions[0].ID)
}

func TestCurrentBalancesNetsBuysAndSells(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetUSD, "100", "TOMAN", "6000000", model.OperationBuy, baseDate)
	record(t, service, 1, model.AssetUSD, "20", "TOMAN", "1300000", model.OperationSell, baseDate.Add(time.Hour))
	record(t, service, 1, model.AssetFullCoin, "0.5", "TOMAN", "22500000", model.OperationBuy, baseDate.Add(2*time.Hour))
	record(t, service, 2, model.AssetEUR, "10", "TOMAN", "650000", model.OperationBuy, baseDate)

	balances, err := service.CurrentBalances(1)
	require.NoError(t, err)

	require.Len(t, balances, 2)
	assert.True(t, decimal.NewFromInt(80).Equal(balances[model.AssetUSD]))
	assert.True(t, decimal.RequireFromString("0.5").Equal(balances[model.AssetFullCoin]))
}

func TestCurrentBalancesIgnoreTransactionOrder(t *testing.T) {
	t.Parallel()

	forward, _ := newTestService()
	record(t, forward, 1, model.AssetUSD, "100", "TOMAN", "6000000", model.OperationBuy, baseDate)
	record(t, forward, 1, model.AssetUSD, "20", "TOMAN", "1300000", model.OperationSell, baseDate.Add(time.Hour))

	backward, _ := newTestService()
	record(t, backward, 1, model.AssetUSD, "20", "TOMAN", "1300000", model.OperationSell, baseDate.Add(time.Hour))
	record(t, backward, 1, model.AssetUSD, "100", "TOMAN", "6000000", model.OperationBuy, baseDate)

	first, err := forward.CurrentBalances(1)
	require.NoError(t, err)
	second, err := backward.CurrentBalances(1)
	require.NoError(t, err)

	assert.True(t, first[model.AssetUSD].Equal(second[model.AssetUSD]))
}

func TestCurrentValuesPriceBalancesInToman(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetUSD, "100", "TOMAN", "6000000", model.OperationBuy, baseDate)
	record(t, service, 1, model.AssetUSD, "20", "TOMAN", "1300000", model.OperationSell, baseDate.Add(time.Hour))

	values, err := service.CurrentValues(1)
	require.NoError(t, err)

	require.Len(t, values, 1)
	assert.True(t, decimal.NewFromInt(4800000).Equal(values[model.AssetUSD]))
}

func TestPnLIsZeroWhenBoughtAtCurrentPrice(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetFullCoin, "0.1", "TOMAN", "4500000", model.OperationBuy, baseDate)

	pnl, err := service.PnLByAsset(1, baseDate.Add(-time.Hour), baseDate.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, pnl, 1)
	assert.True(t, pnl[model.AssetFullCoin].IsZero())
}

func TestPnLConvertsDollarPayments(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	// 100 USD bought for 90 dollars paid. Cost 90 * 60000, worth 100 * 60000.
	record(t, service, 1, model.AssetUSD, "100", "DOLLAR", "90", model.OperationBuy, baseDate)

	pnl, err := service.PnLByAsset(1, baseDate.Add(-time.Hour), baseDate.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(600000).Equal(pnl[model.AssetUSD]))
}

func TestPnLRespectsDateRange(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetUSD, "100", "DOLLAR", "90", model.OperationBuy, baseDate)
	record(t, service, 1, model.AssetEUR, "10", "EURO", "9", model.OperationBuy, baseDate.AddDate(0, 1, 0))

	pnl, err := service.PnLByAsset(1, baseDate.Add(-time.Hour), baseDate.Add(time.Hour))
	require.NoError(t, err)

	require.Len(t, pnl, 1)
	_, hasEUR := pnl[model.AssetEUR]
	assert.False(t, hasEUR)
}

func TestUnknownPaymentLabelIsTreatedAsToman(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetUSD, "10", "RIAL-ISH", "600000", model.OperationBuy, baseDate)

	summary, err := service.Valuation(1)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(600000).Equal(summary.InitialCost))
	assert.True(t, decimal.NewFromInt(600000).Equal(summary.CurrentValue))
	assert.True(t, summary.ROIPercent.IsZero())
}

func TestAllocationPercentSumsToHundred(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetUSD, "100", "TOMAN", "6000000", model.OperationBuy, baseDate)
	record(t, service, 1, model.AssetEUR, "20", "TOMAN", "1300000", model.OperationBuy, baseDate)
	record(t, service, 1, model.AssetQuarterCoin, "1", "TOMAN", "13000000", model.OperationBuy, baseDate)

	percentages, err := service.AllocationPercent(1)
	require.NoError(t, err)
	require.Len(t, percentages, 3)

	total := decimal.Zero

	for _, share := range percentages {
		assert.True(t, share.IsPositive())
		total = total.Add(share)
	}

	difference := total.Sub(decimal.NewFromInt(100)).Abs()
	assert.True(t, difference.LessThan(decimal.RequireFromString("0.01")), total.String())
}

func TestAllocationPercentEmptyWhenTotalIsZero(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetUSD, "50", "TOMAN", "3000000", model.OperationBuy, baseDate)
	record(t, service, 1, model.AssetUSD, "50", "TOMAN", "3000000", model.OperationSell, baseDate.Add(time.Hour))

	percentages, err := service.AllocationPercent(1)
	require.NoError(t, err)

	assert.Empty(t, percentages)
}

func TestValuationOfEmptyHistory(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()

	summary, err := service.Valuation(42)
	require.NoError(t, err)

	assert.True(t, summary.InitialCost.IsZero())
	assert.True(t, summary.CurrentValue.IsZero())
	assert.True(t, summary.ROIPercent.IsZero())
}

func TestValuationROI(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	// Bought 100 USD for 5,000,000 toman; now worth 6,000,000. ROI 20%.
	record(t, service, 1, model.AssetUSD, "100", "TOMAN", "5000000", model.OperationBuy, baseDate)

	summary, err := service.Valuation(1)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(5000000).Equal(summary.InitialCost))
	assert.True(t, decimal.NewFromInt(6000000).Equal(summary.CurrentValue))
	assert.True(t, decimal.NewFromInt(20).Equal(summary.ROIPercent), summary.ROIPercent.String())
}

func TestBuildSnapshotFillsEveryColumn(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()
	record(t, service, 1, model.AssetUSD, "100", "TOMAN", "6000000", model.OperationBuy, baseDate)
	record(t, service, 1, model.AssetCrypto, "0.001", "TOMAN", "4000000", model.OperationBuy, baseDate)

	snapshot, err := service.BuildSnapshot(1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), snapshot.UserID)
	assert.False(t, snapshot.Time.IsZero())
	assert.True(t, decimal.NewFromInt(6000000).Equal(snapshot.USD))
	assert.True(t, decimal.NewFromInt(4000000).Equal(snapshot.Crypto))
	assert.True(t, snapshot.EUR.IsZero())
	assert.True(t, snapshot.FullCoin.IsZero())
	assert.True(t, snapshot.HalfCoin.IsZero())
	assert.True(t, snapshot.QuarterCoin.IsZero())
	assert.True(t, decimal.NewFromInt(10000000).Equal(snapshot.Total))
}

func TestSnapshotNowPersistsAndLists(t *testing.T) {
	t.Parallel()

	service, store := newTestService()
	record(t, service, 1, model.AssetUSD, "10", "TOMAN", "600000", model.OperationBuy, baseDate)

	require.NoError(t, service.SnapshotNow(1))
	require.Len(t, store.snapshots, 1)

	taken := store.snapshots[0].Time
	snapshots, err := service.Snapshots(1, taken.Add(-time.Minute), taken.Add(time.Minute))
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	assert.True(t, decimal.NewFromInt(600000).Equal(snapshots[0].Total))
}

func TestTransactionsPageReportsTotalCount(t *testing.T) {
	t.Parallel()

	service, _ := newTestService()

	for i := 0; i < 5; i++ {
		record(t, service, 1, model.AssetUSD, "1", "TOMAN", "60000", model.OperationBuy, baseDate.Add(time.Duration(i)*time.Hour))
	}

	transactions, count, err := service.TransactionsPage(1, 0, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, count)
	require.Len(t, transactions, 2)
	// Newest first.
	assert.True(t, transactions[0].Date.After(transactions[1].Date))
}
