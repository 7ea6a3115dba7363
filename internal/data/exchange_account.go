package data

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	pkgerrors "TradeSentry/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// Exchange represents the database ENUM type for supported exchanges.
type Exchange string

// Supported exchange constants.
const (
	ExchangeBinance  Exchange = "binance"
	ExchangeCoinbase Exchange = "coinbase"
	ExchangeKraken   Exchange = "kraken"
	ExchangeBybit    Exchange = "bybit"
)

// Scan implements sql.Scanner for Exchange.
func (e *Exchange) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*e = ""
	case string:
		*e = Exchange(v)
	case []byte:
		*e = Exchange(v)
	default:
		return fmt.Errorf("cannot scan %T into Exchange", value)
	}
	return nil
}

// Value implements driver.Valuer for Exchange.
func (e Exchange) Value() (driver.Value, error) {
	return string(e), nil
}

// AccountStatus represents the database ENUM type for account status.
type AccountStatus string

// Account status constants.
const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusError    AccountStatus = "error"
)

// Scan implements sql.Scanner for AccountStatus.
func (s *AccountStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = AccountStatus(v)
	case []byte:
		*s = AccountStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into AccountStatus", value)
	}
	return nil
}

// Value implements driver.Valuer for AccountStatus.
func (s AccountStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// ExchangeAccount is the GORM model for the exchange_accounts table.
// API credentials are stored AES-256-GCM encrypted; encryption happens in
// the biz layer before the model reaches this repository.
type ExchangeAccount struct {
	ID                 int64         `gorm:"primaryKey;column:id"`
	Name               string        `gorm:"column:name;size:100;uniqueIndex;not null"`
	Exchange           Exchange      `gorm:"column:exchange;type:enum('binance','coinbase','kraken','bybit');not null"`
	APIKeyEncrypted    string        `gorm:"column:api_key_encrypted;type:text"`
	APISecretEncrypted string        `gorm:"column:api_secret_encrypted;type:text"`
	Status             AccountStatus `gorm:"column:status;type:enum('active','inactive','error');default:'active';not null"`
	Metadata           *string       `gorm:"column:metadata;type:json"` // typed JSON, see pkg/metadata
	Version            int32         `gorm:"column:version;default:1;not null"`
	CreatedAt          time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (ExchangeAccount) TableName() string {
	return "exchange_accounts"
}

// AccountRepo implements biz.AccountRepo with a Redis read-through cache.
type AccountRepo struct {
	db     *gorm.DB
	cache  CacheClient
	logger *log.Helper
}

// NewAccountRepo creates a new exchange account repository.
func NewAccountRepo(db *gorm.DB, cache CacheClient, logger log.Logger) *AccountRepo {
	return &AccountRepo{
		db:     db,
		cache:  cache,
		logger: log.NewHelper(logger),
	}
}

// Create persists a new exchange account.
func (r *AccountRepo) Create(ctx context.Context, account *ExchangeAccount) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return pkgerrors.ClassifyDBError(err)
	}
	return nil
}

// GetByID loads an account, trying the cache first.
func (r *AccountRepo) GetByID(ctx context.Context, id int64) (*ExchangeAccount, error) {
	key := AccountCacheKey(id)

	var cached ExchangeAccount
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, ErrCacheNotFound) {
		// Cache trouble is logged, not surfaced; the database is authoritative
		r.logger.Warnw("msg", "account cache read failed", "account_id", id, "error", err)
	}

	var account ExchangeAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}

	if err := r.cache.Set(ctx, key, &account, TTLAccount); err != nil {
		r.logger.Warnw("msg", "account cache write failed", "account_id", id, "error", err)
	}

	return &account, nil
}

// GetByName loads an account by its unique name.
func (r *AccountRepo) GetByName(ctx context.Context, name string) (*ExchangeAccount, error) {
	var account ExchangeAccount
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&account).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return &account, nil
}

// List returns all accounts, optionally restricted to active ones.
func (r *AccountRepo) List(ctx context.Context, activeOnly bool) ([]*ExchangeAccount, error) {
	query := r.db.WithContext(ctx).Model(&ExchangeAccount{})
	if activeOnly {
		query = query.Where("status = ?", AccountStatusActive)
	}

	var accounts []*ExchangeAccount
	if err := query.Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return accounts, nil
}

// Update persists account changes with optimistic locking and invalidates
// the cache entry. Returns ErrorTypeNotFound classification when the version
// has moved on.
func (r *AccountRepo) Update(ctx context.Context, account *ExchangeAccount) error {
	currentVersion := account.Version
	account.Version = currentVersion + 1

	result := r.db.WithContext(ctx).Model(&ExchangeAccount{}).
		Where("id = ? AND version = ?", account.ID, currentVersion).
		Updates(map[string]interface{}{
			"name":                 account.Name,
			"exchange":             account.Exchange,
			"api_key_encrypted":    account.APIKeyEncrypted,
			"api_secret_encrypted": account.APISecretEncrypted,
			"status":               account.Status,
			"metadata":             account.Metadata,
			"version":              account.Version,
		})
	if result.Error != nil {
		return pkgerrors.ClassifyDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ClassifyDBError(gorm.ErrRecordNotFound)
	}

	if err := r.cache.Delete(ctx, AccountCacheKey(account.ID)); err != nil {
		r.logger.Warnw("msg", "account cache invalidation failed", "account_id", account.ID, "error", err)
	}

	return nil
}

// Delete removes an account and invalidates its cache entry.
func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&ExchangeAccount{}, id)
	if result.Error != nil {
		return pkgerrors.ClassifyDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ClassifyDBError(gorm.ErrRecordNotFound)
	}

	if err := r.cache.Delete(ctx, AccountCacheKey(id)); err != nil {
		r.logger.Warnw("msg", "account cache invalidation failed", "account_id", id, "error", err)
	}

	return nil
}
