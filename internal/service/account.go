package service

import (
	"context"

	"TradeSentry/internal/biz"
	"TradeSentry/internal/data"
	"TradeSentry/pkg/metadata"

	"github.com/go-kratos/kratos/v2/log"
)

// LinkAccountRequest is the account linking payload. Credentials arrive
// in plaintext over the authenticated channel and are encrypted at rest.
type LinkAccountRequest struct {
	Name      string                    `json:"name"`
	Exchange  string                    `json:"exchange"`
	APIKey    string                    `json:"api_key"`
	APISecret string                    `json:"api_secret"`
	Metadata  *metadata.AccountMetadata `json:"metadata,omitempty"`
}

// UpdateAccountStatusRequest changes an account's lifecycle status.
type UpdateAccountStatusRequest struct {
	Status string `json:"status"`
}

// ListAccountsReply holds the account listing.
type ListAccountsReply struct {
	Accounts []*biz.AccountView `json:"accounts"`
	Total    int                `json:"total"`
}

// AccountService manages linked exchange accounts.
type AccountService struct {
	uc     *biz.AccountUsecase
	logger *log.Helper
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(uc *biz.AccountUsecase, logger log.Logger) *AccountService {
	return &AccountService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// LinkAccount stores a new exchange account with encrypted credentials.
func (s *AccountService) LinkAccount(ctx context.Context, req *LinkAccountRequest) (*biz.AccountView, error) {
	s.logger.Infow("msg", "LinkAccount called", "type", "account",
		"name", req.Name, "exchange", req.Exchange)

	view, err := s.uc.LinkAccount(ctx, &biz.LinkAccountParams{
		Name:      req.Name,
		Exchange:  data.Exchange(req.Exchange),
		APIKey:    req.APIKey,
		APISecret: req.APISecret,
		Metadata:  req.Metadata,
	})
	if err != nil {
		s.logger.Errorw("msg", "failed to link account", "name", req.Name, "error", err)
		return nil, err
	}
	return view, nil
}

// GetAccount returns a masked account by id.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*biz.AccountView, error) {
	return s.uc.GetAccount(ctx, id)
}

// ListAccounts returns masked accounts.
func (s *AccountService) ListAccounts(ctx context.Context, activeOnly bool) (*ListAccountsReply, error) {
	views, err := s.uc.ListAccounts(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	return &ListAccountsReply{Accounts: views, Total: len(views)}, nil
}

// UpdateAccountStatus moves an account between statuses.
func (s *AccountService) UpdateAccountStatus(ctx context.Context, id int64, req *UpdateAccountStatusRequest) (*biz.AccountView, error) {
	s.logger.Infow("msg", "UpdateAccountStatus called", "type", "account",
		"account_id", id, "status", req.Status)
	return s.uc.UpdateAccountStatus(ctx, id, data.AccountStatus(req.Status))
}

// UnlinkAccount deletes an account and its credentials.
func (s *AccountService) UnlinkAccount(ctx context.Context, id int64) error {
	s.logger.Infow("msg", "UnlinkAccount called", "type", "account", "account_id", id)
	return s.uc.UnlinkAccount(ctx, id)
}
