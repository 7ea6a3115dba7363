package biz

import (
	"context"
	"encoding/hex"
	"time"

	"TradeSentry/internal/conf"
	"TradeSentry/internal/data"
	"TradeSentry/internal/model"
	"TradeSentry/pkg/crypto"
	"TradeSentry/pkg/metadata"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// LinkAccountParams carries the fields needed to link an exchange account.
// APIKey and APISecret arrive in plaintext and are encrypted before storage.
type LinkAccountParams struct {
	Name      string
	Exchange  data.Exchange
	APIKey    string
	APISecret string
	Metadata  *metadata.AccountMetadata
}

// AccountView is the credential-free representation returned to callers.
// The API key is masked and the secret never leaves the usecase.
type AccountView struct {
	ID           int64                     `json:"id"`
	Name         string                    `json:"name"`
	Exchange     data.Exchange             `json:"exchange"`
	Status       data.AccountStatus        `json:"status"`
	APIKeyMasked string                    `json:"api_key_masked"`
	Metadata     *metadata.AccountMetadata `json:"metadata,omitempty"`
	Version      int32                     `json:"version"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// Credentials holds decrypted exchange credentials for internal use only.
type Credentials struct {
	APIKey    string
	APISecret string
}

// AccountUsecase manages exchange account lifecycle with credentials
// encrypted at rest.
type AccountUsecase struct {
	accounts AccountRepo
	cipher   *crypto.AESCrypto
	audit    AuditLogger
	logger   *log.Helper
}

// NewAccountUsecase creates the account usecase. The encryption key comes
// from auth config, either 32 raw bytes or 64 hex characters.
func NewAccountUsecase(accounts AccountRepo, c *conf.Auth, audit AuditLogger, logger log.Logger) (*AccountUsecase, error) {
	key := []byte(c.Encryption.Key)
	if len(key) == 64 {
		decoded, err := hex.DecodeString(c.Encryption.Key)
		if err == nil {
			key = decoded
		}
	}
	cipher, err := crypto.NewAESCrypto(key)
	if err != nil {
		return nil, err
	}
	return &AccountUsecase{
		accounts: accounts,
		cipher:   cipher,
		audit:    audit,
		logger:   log.NewHelper(logger),
	}, nil
}

// LinkAccount validates, encrypts and stores a new exchange account.
func (uc *AccountUsecase) LinkAccount(ctx context.Context, params *LinkAccountParams) (*AccountView, error) {
	if params.Name == "" {
		return nil, kerrors.New(400, "ACCOUNT_NAME_REQUIRED", "account name is required")
	}
	switch params.Exchange {
	case data.ExchangeBinance, data.ExchangeCoinbase, data.ExchangeKraken, data.ExchangeBybit:
	default:
		return nil, kerrors.New(400, "ACCOUNT_EXCHANGE_INVALID", "unsupported exchange")
	}
	if params.APIKey == "" || params.APISecret == "" {
		return nil, kerrors.New(400, "ACCOUNT_CREDENTIALS_REQUIRED", "api key and secret are required")
	}
	if params.Metadata != nil {
		if err := params.Metadata.Validate(); err != nil {
			return nil, kerrors.New(400, "ACCOUNT_METADATA_INVALID", err.Error())
		}
	}

	keyEnc, err := uc.cipher.Encrypt(params.APIKey)
	if err != nil {
		return nil, err
	}
	secretEnc, err := uc.cipher.Encrypt(params.APISecret)
	if err != nil {
		return nil, err
	}

	account := &data.ExchangeAccount{
		Name:               params.Name,
		Exchange:           params.Exchange,
		APIKeyEncrypted:    keyEnc,
		APISecretEncrypted: secretEnc,
		Status:             data.AccountStatusActive,
	}
	if params.Metadata != nil && !params.Metadata.IsEmpty() {
		meta := params.Metadata.String()
		account.Metadata = &meta
	}

	if err := uc.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	uc.logger.Infow("msg", "exchange account linked", "type", "account",
		"account_id", account.ID, "name", account.Name, "exchange", account.Exchange)
	uc.audit.LogAccountEvent(ctx, model.AuditEventAccountLinked, account.ID, account.Name)
	return uc.view(account), nil
}

// GetAccount returns the masked view of an account.
func (uc *AccountUsecase) GetAccount(ctx context.Context, id int64) (*AccountView, error) {
	account, err := uc.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.view(account), nil
}

// ListAccounts returns masked views of all accounts.
func (uc *AccountUsecase) ListAccounts(ctx context.Context, activeOnly bool) ([]*AccountView, error) {
	accounts, err := uc.accounts.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	views := make([]*AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, uc.view(account))
	}
	return views, nil
}

// UpdateAccountStatus moves an account between active, inactive and error.
func (uc *AccountUsecase) UpdateAccountStatus(ctx context.Context, id int64, status data.AccountStatus) (*AccountView, error) {
	switch status {
	case data.AccountStatusActive, data.AccountStatusInactive, data.AccountStatusError:
	default:
		return nil, kerrors.New(400, "ACCOUNT_STATUS_INVALID", "unknown account status")
	}
	account, err := uc.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	account.Status = status
	if err := uc.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return uc.view(account), nil
}

// UnlinkAccount deletes an account and its stored credentials.
func (uc *AccountUsecase) UnlinkAccount(ctx context.Context, id int64) error {
	account, err := uc.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.accounts.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Infow("msg", "exchange account unlinked", "type", "account",
		"account_id", id, "name", account.Name)
	uc.audit.LogAccountEvent(ctx, model.AuditEventAccountUnlinked, id, account.Name)
	return nil
}

// Credentials decrypts and returns the stored API key pair. Internal
// callers only, never exposed through the HTTP surface.
func (uc *AccountUsecase) Credentials(ctx context.Context, id int64) (*Credentials, error) {
	account, err := uc.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apiKey, err := uc.cipher.Decrypt(account.APIKeyEncrypted)
	if err != nil {
		return nil, err
	}
	apiSecret, err := uc.cipher.Decrypt(account.APISecretEncrypted)
	if err != nil {
		return nil, err
	}
	return &Credentials{APIKey: apiKey, APISecret: apiSecret}, nil
}

func (uc *AccountUsecase) view(account *data.ExchangeAccount) *AccountView {
	view := &AccountView{
		ID:           account.ID,
		Name:         account.Name,
		Exchange:     account.Exchange,
		Status:       account.Status,
		APIKeyMasked: maskKey(uc.cipher, account.APIKeyEncrypted),
		Version:      account.Version,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}
	if account.Metadata != nil {
		meta, err := metadata.Parse(*account.Metadata)
		if err != nil {
			uc.logger.Warnw("msg", "failed to parse account metadata",
				"account_id", account.ID, "error", err)
		} else {
			view.Metadata = meta.MaskSensitive()
		}
	}
	return view
}

// maskKey decrypts a stored key and keeps only the first and last four
// characters. Decryption failures fall back to a fully masked value.
func maskKey(cipher *crypto.AESCrypto, encrypted string) string {
	plain, err := cipher.Decrypt(encrypted)
	if err != nil || len(plain) <= 8 {
		return "********"
	}
	return plain[:4] + "****" + plain[len(plain)-4:]
}
