// Package model defines the data types shared across goldfolio.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument marks input the core refuses to coerce.
var ErrInvalidArgument = errors.New("invalid argument")

// AssetType identifies one of the six tracked asset classes.
type AssetType string

const (
	AssetUSD         AssetType = "USD"
	AssetEUR         AssetType = "EUR"
	AssetFullCoin    AssetType = "FULL_COIN"
	AssetHalfCoin    AssetType = "HALF_COIN"
	AssetQuarterCoin AssetType = "QUARTER_COIN"
	AssetCrypto      AssetType = "CRYPTO"
)

// AssetTypes lists every asset type once, in a fixed order.
var AssetTypes = []AssetType{
	AssetUSD,
	AssetEUR,
	AssetFullCoin,
	AssetHalfCoin,
	AssetQuarterCoin,
	AssetCrypto,
}

// ParseAssetType reads an asset type name, ignoring case.
func ParseAssetType(name string) (AssetType, error) {
	assetType := AssetType(strings.ToUpper(strings.TrimSpace(name)))

	for _, known := range AssetTypes {
		if assetType == known {
			return assetType, nil
		}
	}

	return "", fmt.Errorf("unknown asset type %q: %w", name, ErrInvalidArgument)
}

// Operation says whether a transaction added to or removed from a holding.
type Operation string

const (
	OperationBuy  Operation = "BUY"
	OperationSell Operation = "SELL"
)

// ParseOperation reads an operation name, ignoring case.
func ParseOperation(name string) (Operation, error) {
	operation := Operation(strings.ToUpper(strings.TrimSpace(name)))

	if operation == OperationBuy || operation == OperationSell {
		return operation, nil
	}

	return "", fmt.Errorf("unknown operation %q: %w", name, ErrInvalidArgument)
}

// Transaction is one recorded buy or sell.
//
// Price is the TOTAL paid in Currency units, not a unit price. Currency is a
// free-form payment label ("DOLLAR", "EURO", "TOMAN", or anything else,
// which is treated as toman).
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Asset     AssetType       `json:"asset"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Price     decimal.Decimal `json:"price"`
	Operation Operation       `json:"operation"`
	Date      time.Time       `json:"date"`
}

// Snapshot is a point-in-time valuation in toman, one column per asset type.
type Snapshot struct {
	UserID      int64           `json:"userId"`
	Time        time.Time       `json:"time"`
	Total       decimal.Decimal `json:"total"`
	USD         decimal.Decimal `json:"usd"`
	EUR         decimal.Decimal `json:"eur"`
	FullCoin    decimal.Decimal `json:"fullCoin"`
	HalfCoin    decimal.Decimal `json:"halfCoin"`
	QuarterCoin decimal.Decimal `json:"quarterCoin"`
	Crypto      decimal.Decimal `json:"crypto"`
}

// Value returns the stored value for one asset type.
func (snapshot *Snapshot) Value(assetType AssetType) decimal.Decimal {
	switch assetType {
	case AssetUSD:
		return snapshot.USD
	case AssetEUR:
		return snapshot.EUR
	case AssetFullCoin:
		return snapshot.FullCoin
	case AssetHalfCoin:
		return snapshot.HalfCoin
	case AssetQuarterCoin:
		return snapshot.QuarterCoin
	case AssetCrypto:
		return snapshot.Crypto
	}

	return decimal.Zero
}

// SetValue stores the value for one asset type.
func (snapshot *Snapshot) SetValue(assetType AssetType, value decimal.Decimal) {
	switch assetType {
	case AssetUSD:
		snapshot.USD = value
	case AssetEUR:
		snapshot.EUR = value
	case AssetFullCoin:
		snapshot.FullCoin = value
	case AssetHalfCoin:
		snapshot.HalfCoin = value
	case AssetQuarterCoin:
		snapshot.QuarterCoin = value
	case AssetCrypto:
		snapshot.Crypto = value
	}
}

// ValuationSummary sets the whole portfolio against its cost basis.
type ValuationSummary struct {
	InitialCost  decimal.Decimal `json:"initialCost"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	ROIPercent   decimal.Decimal `json:"roiPercent"`
}
