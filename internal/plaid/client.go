// Package plaid fetches raw transactions from the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// DefaultInstitution names the source when the config does not.
const DefaultInstitution = "Plaid"

const rateLimitCode = "RATE_LIMIT_EXCEEDED"

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	Institution string // source prefix, e.g. "WellsFargo"
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}
	if c.Environment != "sandbox" && c.Environment != "production" {
		return fmt.Errorf("%w: invalid Plaid environment %q: must be sandbox or production", common.ErrInvalidConfig, c.Environment)
	}
	return nil
}

// Account is a Plaid account mapped onto the ledger's account types.
type Account struct {
	ID   string
	Name string
	Mask string
	Type model.AccountType
}

// Client implements the TransactionFetcher interface.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   common.RetryOptions
	accessToken string
	institution string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	institution := strings.ReplaceAll(strings.TrimSpace(cfg.Institution), " ", "")
	if institution == "" {
		institution = DefaultInstitution
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		institution: institution,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// Accounts fetches the item's accounts. Credit accounts map to CreditCard and
// depository accounts to Checking; anything else keeps Plaid's type name.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	var accounts []plaid.AccountBase
	err := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return c.classifyError("fetch accounts", err)
		}
		accounts = resp.GetAccounts()
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched accounts", "count", len(accounts))

	result := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, Account{
			ID:   a.GetAccountId(),
			Name: a.GetName(),
			Mask: a.GetMask(),
			Type: mapAccountType(a.GetType()),
		})
	}
	return result, nil
}

// Transactions fetches posted transactions between startDate and endDate.
// Amounts follow the ledger's source convention: checking outflows negative,
// card charges positive. Pending transactions are left out.
func (c *Client) Transactions(ctx context.Context, startDate, endDate time.Time) ([]model.RawTransaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"))

	var all []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		var page []plaid.Transaction
		err := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format("2006-01-02"),
				endDate.Format("2006-01-02"),
			)
			request.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				return c.classifyError("fetch transactions", err)
			}
			page = resp.GetTransactions()
			c.logger.Debug("Fetched transaction batch",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		}, c.retryOpts)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	rows := make([]model.RawTransaction, 0, len(all))
	for _, pt := range all {
		if pt.GetPending() {
			continue
		}
		acct, ok := byID[pt.GetAccountId()]
		if !ok {
			c.logger.Warn("Transaction for unknown account", "account_id", pt.GetAccountId())
			acct = Account{ID: pt.GetAccountId(), Type: model.AccountType("Unknown")}
		}
		row, err := toRaw(pt, acct, c.institution)
		if err != nil {
			c.logger.Warn("Skipping Plaid transaction", "transaction_id", pt.GetTransactionId(), "error", err)
			continue
		}
		rows = append(rows, row)
	}
	model.AssignIDs(rows)

	c.logger.Info("Fetched all transactions", "count", len(rows), "skipped", len(all)-len(rows))
	return rows, nil
}

func (c *Client) classifyError(op string, err error) error {
	if plaidError := extractPlaidError(err); plaidError != nil {
		if plaidError.ErrorCode == rateLimitCode {
			c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
			return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidError.ErrorMessage), Retryable: true}
		}
		return &common.RetryableError{
			Err:       fmt.Errorf("plaid API error: %s - %s", plaidError.ErrorCode, plaidError.ErrorMessage),
			Retryable: false,
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func mapAccountType(t plaid.AccountType) model.AccountType {
	switch t {
	case plaid.ACCOUNTTYPE_CREDIT:
		return model.AccountCreditCard
	case plaid.ACCOUNTTYPE_DEPOSITORY:
		return model.AccountChecking
	default:
		return model.AccountType(string(t))
	}
}

// toRaw converts a Plaid transaction. Plaid reports outflows positive, which
// already matches card exports; checking rows are flipped.
func toRaw(pt plaid.Transaction, acct Account, institution string) (model.RawTransaction, error) {
	posted, err := time.Parse("2006-01-02", pt.GetDate())
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parsing date %q: %w", pt.GetDate(), err)
	}

	amount := decimal.NewFromFloat(pt.GetAmount()).Round(2)
	if acct.Type == model.AccountChecking {
		amount = amount.Neg()
	}

	source := institution
	if acct.Mask != "" {
		source += "_" + acct.Mask
	}

	row := model.RawTransaction{
		TransactionDate:   posted,
		Description:       strings.TrimSpace(pt.GetName()),
		Amount:            amount,
		CategorySource:    strings.Join(pt.GetCategory(), " - "),
		Source:            source,
		AccountID:         acct.ID,
		AccountType:       acct.Type,
		AdditionalDetails: pt.GetMerchantName(),
	}
	if auth := pt.GetAuthorizedDate(); auth != "" {
		if d, err := time.Parse("2006-01-02", auth); err == nil && !d.Equal(posted) {
			row.TransactionDate = d
			row.PostDate = &posted
		}
	}
	return row, nil
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure Client implements TransactionFetcher interface.
var _ TransactionFetcher = (*Client)(nil)
