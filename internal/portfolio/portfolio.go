// Package portfolio implements the valuation engine: net balances, current
// values, PnL, allocation percentages, ROI summaries, and snapshots.
//
// All values are expressed in toman and rounded half-up to 2 decimal places
// on the way out. Cost-basis conversion uses the CURRENT cached FX rate, not
// the rate on the transaction date. Historical rates are not stored anywhere,
// so PnL drifts as rates move.
package portfolio

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/toman-labs/goldfolio/internal/model"
	"github.com/toman-labs/goldfolio/internal/price"
)

var One = decimal.NewFromInt(1)
var Hundred = decimal.NewFromInt(100)

// Store is the durable home of recorded transactions.
type Store interface {
	ListByUser(userID int64) ([]model.Transaction, error)
	ListByUserInRange(userID int64, start time.Time, end time.Time) ([]model.Transaction, error)
	ListByUserPage(userID int64, page int, size int) ([]model.Transaction, error)
	CountByUser(userID int64) (int, error)
	Append(transaction *model.Transaction) error
}

// SnapshotStore is the append-only home of valuation snapshots.
type SnapshotStore interface {
	AppendSnapshot(snapshot *model.Snapshot) error
	ListSnapshotsInRange(userID int64, start time.Time, end time.Time) ([]model.Snapshot, error)
}

// Service wires the stores and the price cache into the public operations.
type Service struct {
	store     Store
	snapshots SnapshotStore
	prices    *price.Cache
}

func NewService(store Store, snapshots SnapshotStore, prices *price.Cache) *Service {
	return &Service{store: store, snapshots: snapshots, prices: prices}
}

// RecordTransaction appends a validated transaction. A zero date is replaced
// with the current time.
func (service *Service) RecordTransaction(transaction *model.Transaction) error {
	if transaction.Date.IsZero() {
		transaction.Date = time.Now()
	}

	return service.store.Append(transaction)
}

// Transactions lists a user's whole history, oldest first.
func (service *Service) Transactions(userID int64) ([]model.Transaction, error) {
	return service.store.ListByUser(userID)
}

// TransactionsPage lists one page of a user's history, newest first, along
// with the total transaction count.
func (service *Service) TransactionsPage(userID int64, page int, size int) ([]model.Transaction, int, error) {
	transactions, err := service.store.ListByUserPage(userID, page, size)

	if err != nil {
		return nil, 0, err
	}

	count, err := service.store.CountByUser(userID)

	if err != nil {
		return nil, 0, err
	}

	return transactions, count, nil
}

// CurrentBalances nets every transaction into a signed quantity per asset.
// Only asset types that appear in the history are present in the result.
func (service *Service) CurrentBalances(userID int64) (map[model.AssetType]decimal.Decimal, error) {
	transactions, err := service.store.ListByUser(userID)

	if err != nil {
		return nil, err
	}

	return netBalances(transactions), nil
}

func netBalances(transactions []model.Transaction) map[model.AssetType]decimal.Decimal {
	balances := map[model.AssetType]decimal.Decimal{}

	for i := range transactions {
		transaction := &transactions[i]
		balances[transaction.Asset] = balances[transaction.Asset].Add(signedAmount(transaction))
	}

	return balances
}

func signedAmount(transaction *model.Transaction) decimal.Decimal {
	if transaction.Operation == model.OperationSell {
		return transaction.Amount.Neg()
	}

	return transaction.Amount
}

// CurrentValues prices the balances in toman, refreshing the cache first.
func (service *Service) CurrentValues(userID int64) (map[model.AssetType]decimal.Decimal, error) {
	service.prices.RefreshIfStale()

	balances, err := service.CurrentBalances(userID)

	if err != nil {
		return nil, err
	}

	values := make(map[model.AssetType]decimal.Decimal, len(balances))

	for assetType, balance := range balances {
		values[assetType] = service.prices.UnitPrice(assetType).Mul(balance).Round(2)
	}

	return values, nil
}

// PnLByAsset sums, per asset type, the difference between what transactions
// in [start, end] are worth now and what was paid for them.
func (service *Service) PnLByAsset(userID int64, start time.Time, end time.Time) (map[model.AssetType]decimal.Decimal, error) {
	transactions, err := service.store.ListByUserInRange(userID, start, end)

	if err != nil {
		return nil, err
	}

	pnl := map[model.AssetType]decimal.Decimal{}

	for i := range transactions {
		transaction := &transactions[i]
		currentValue := service.prices.UnitPrice(transaction.Asset).Mul(signedAmount(transaction))
		delta := currentValue.Sub(service.signedCostBasis(transaction))
		pnl[transaction.Asset] = pnl[transaction.Asset].Add(delta)
	}

	for assetType, total := range pnl {
		pnl[assetType] = total.Round(2)
	}

	return pnl, nil
}

// signedCostBasis converts the total paid into toman at current rates,
// negated for sells.
func (service *Service) signedCostBasis(transaction *model.Transaction) decimal.Decimal {
	paid := transaction.Price.Mul(service.paymentUnitPrice(transaction.Currency))

	if transaction.Operation == model.OperationSell {
		return paid.Neg()
	}

	return paid
}

// paymentUnitPrice converts one unit of a payment currency label to toman.
// Unrecognised labels are treated as already being toman.
func (service *Service) paymentUnitPrice(currency string) decimal.Decimal {
	switch strings.ToUpper(currency) {
	case "DOLLAR":
		return service.prices.UnitPrice(model.AssetUSD)
	case "EURO":
		return service.prices.UnitPrice(model.AssetEUR)
	case "TOMAN":
		return One
	default:
		return One
	}
}

// AllocationPercent converts current values into percentage shares. The
// result is empty when the portfolio values sum to zero.
func (service *Service) AllocationPercent(userID int64) (map[model.AssetType]decimal.Decimal, error) {
	values, err := service.CurrentValues(userID)

	if err != nil {
		return nil, err
	}

	total := decimal.Zero

	for _, assetType := range model.AssetTypes {
		total = total.Add(values[assetType])
	}

	percentages := map[model.AssetType]decimal.Decimal{}

	if total.IsZero() {
		return percentages, nil
	}

	for assetType, value := range values {
		percentages[assetType] = value.DivRound(total, 6).Mul(Hundred).Round(2)
	}

	return percentages, nil
}

// Valuation sums the whole history into a cost basis and a current value.
func (service *Service) Valuation(userID int64) (model.ValuationSummary, error) {
	service.prices.RefreshIfStale()

	transactions, err := service.store.ListByUser(userID)

	if err != nil {
		return model.ValuationSummary{}, err
	}

	initial := decimal.Zero
	current := decimal.Zero

	for i := range transactions {
		transaction := &transactions[i]
		current = current.Add(service.prices.UnitPrice(transaction.Asset).Mul(signedAmount(transaction)))
		initial = initial.Add(service.signedCostBasis(transaction))
	}

	summary := model.ValuationSummary{
		InitialCost:  initial.Round(2),
		CurrentValue: current.Round(2),
	}

	if summary.InitialCost.IsZero() {
		summary.ROIPercent = decimal.Zero
	} else {
		summary.ROIPercent = summary.CurrentValue.
			Sub(summary.InitialCost).
			DivRound(summary.InitialCost, 6).
			Mul(Hundred).
			Round(2)
	}

	return summary, nil
}

// BuildSnapshot computes a snapshot of the current values without persisting
// it. Every asset type gets a column, zero when absent from the valuation.
func (service *Service) BuildSnapshot(userID int64) (*model.Snapshot, error) {
	values, err := service.CurrentValues(userID)

	if err != nil {
		return nil, err
	}

	snapshot := model.Snapshot{UserID: userID, Time: time.Now()}
	total := decimal.Zero

	for _, assetType := range model.AssetTypes {
		value := values[assetType]
		snapshot.SetValue(assetType, value)
		total = total.Add(value)
	}

	snapshot.Total = total

	return &snapshot, nil
}

// SnapshotNow records a snapshot of the current values.
func (service *Service) SnapshotNow(userID int64) error {
	snapshot, err := service.BuildSnapshot(userID)

	if err != nil {
		return err
	}

	return service.snapshots.AppendSnapshot(snapshot)
}

// Snapshots lists recorded snapshots in [start, end], oldest first.
func (service *Service) Snapshots(userID int64, start time.Time, end time.Time) ([]model.Snapshot, error) {
	return service.snapshots.ListSnapshotsInRange(userID, start, end)
}
