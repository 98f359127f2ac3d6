// Package price maintains the cached unit prices every valuation reads.
//
// The cache is the only mutable state the engine owns. Refreshes are
// staleness-gated and single-flight, and a failing or partial source never
// reverts a previously good price to an unknown state.
package price

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/toman-labs/goldfolio/internal/env"
	"github.com/toman-labs/goldfolio/internal/model"
)

// Fields is a partial price update. Nil fields were not found by the source
// and leave the cached value untouched.
type Fields struct {
	USD      *decimal.Decimal
	EUR      *decimal.Decimal
	FullCoin *decimal.Decimal
}

// Source fetches live unit prices from a remote document.
type Source interface {
	Fetch() (Fields, error)
}

// Config carries the price defaults and the refresh policy.
type Config struct {
	Defaults        map[model.AssetType]decimal.Decimal
	RefreshInterval time.Duration
	LiveEnabled     bool
	SourceURL       string
}

// ConfigFromEnv reads the pricing configuration, in toman per unit.
func ConfigFromEnv() Config {
	return Config{
		Defaults: map[model.AssetType]decimal.Decimal{
			model.AssetUSD:         env.Decimal("PRICE_USD_TOMAN", "60000"),
			model.AssetEUR:         env.Decimal("PRICE_EUR_TOMAN", "65000"),
			model.AssetFullCoin:    env.Decimal("PRICE_FULL_COIN_TOMAN", "45000000"),
			model.AssetHalfCoin:    env.Decimal("PRICE_HALF_COIN_TOMAN", "23000000"),
			model.AssetQuarterCoin: env.Decimal("PRICE_QUARTER_COIN_TOMAN", "13000000"),
			// Naive: the crypto bucket is priced as BTC for now.
			model.AssetCrypto: env.Decimal("PRICE_CRYPTO_BTC_TOMAN", "4000000000"),
		},
		RefreshInterval: env.Duration("PRICE_REFRESH_INTERVAL", 5*time.Minute),
		LiveEnabled:     env.Bool("PRICE_LIVE_ENABLED", false),
		SourceURL:       env.String("PRICE_LIVE_SOURCE", "https://alanchand.com/en"),
	}
}

// Cache holds the authoritative unit price per asset type.
//
// refreshMutex serialises refresh attempts so concurrent callers never issue
// overlapping fetches. mutex guards the table itself; field updates during a
// refresh become visible to readers one at a time.
type Cache struct {
	refreshMutex sync.Mutex
	mutex        sync.RWMutex
	prices       map[model.AssetType]decimal.Decimal
	lastRefresh  time.Time

	refreshInterval time.Duration
	liveEnabled     bool
	source          Source
	now             func() time.Time
}

// NewCache builds a cache seeded with the configured default prices.
func NewCache(config Config, source Source) *Cache {
	prices := make(map[model.AssetType]decimal.Decimal, len(model.AssetTypes))

	for _, assetType := range model.AssetTypes {
		prices[assetType] = config.Defaults[assetType]
	}

	return &Cache{
		prices:          prices,
		refreshInterval: config.RefreshInterval,
		liveEnabled:     config.LiveEnabled,
		source:          source,
		now:             time.Now,
	}
}

// UnitPrice returns the cached unit price in toman. It never fails; every
// asset type always has a price.
func (cache *Cache) UnitPrice(assetType model.AssetType) decimal.Decimal {
	cache.mutex.RLock()
	defer cache.mutex.RUnlock()

	return cache.prices[assetType]
}

// RefreshIfStale fetches live prices when the table is older than the
// refresh interval.
//
// Fetch failures keep every cached value and still advance the refresh time,
// so a broken source is retried at most once per interval. On success only
// the fields the source actually found are overwritten.
func (cache *Cache) RefreshIfStale() {
	cache.refreshMutex.Lock()
	defer cache.refreshMutex.Unlock()

	now := cache.now()

	cache.mutex.RLock()
	stale := now.Sub(cache.lastRefresh) >= cache.refreshInterval
	cache.mutex.RUnlock()

	if !stale {
		return
	}

	if cache.liveEnabled && cache.source != nil {
		if fields, err := cache.source.Fetch(); err == nil {
			cache.applyFields(fields)
		}
	}

	cache.mutex.Lock()
	cache.lastRefresh = now
	cache.mutex.Unlock()
}

func (cache *Cache) applyFields(fields Fields) {
	cache.setPrice(model.AssetUSD, fields.USD)
	cache.setPrice(model.AssetEUR, fields.EUR)
	cache.setPrice(model.AssetFullCoin, fields.FullCoin)
}

func (cache *Cache) setPrice(assetType model.AssetType, value *decimal.Decimal) {
	if value == nil || value.IsNegative() {
		return
	}

	cache.mutex.Lock()
	cache.prices[assetType] = *value
	cache.mutex.Unlock()
}
