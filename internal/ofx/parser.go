// Package ofx converts OFX/QFX statement downloads into raw transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// DefaultSource names rows from files whose sign-on block carries no institution.
const DefaultSource = "OFX"

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// categoryByType maps OFX transaction types onto the bank category labels the
// classifier understands.
// ofxgo does not export its transaction type, so entries are keyed by its name.
var categoryByType = map[string]string{
	ofxgo.TrnTypeDirectDep.String(): "Direct Deposit",
	ofxgo.TrnTypeDep.String():       "Deposit",
	ofxgo.TrnTypeInt.String():       "Interest",
	ofxgo.TrnTypeDiv.String():       "Dividend",
	ofxgo.TrnTypeATM.String():       "Withdrawal",
	ofxgo.TrnTypeFee.String():       "Fees",
	ofxgo.TrnTypeSrvChg.String():    "Fees",
	ofxgo.TrnTypeXfer.String():      "Transfer",
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare opening tag
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file. Bank statements become Checking rows with
// their sign kept (debits negative). Card statements become CreditCard rows
// flipped to charges positive, matching the card CSV exports.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.RawTransaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	institution := institutionName(resp)

	var rows []model.RawTransaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bankStmts++
		acct := string(stmt.BankAcctFrom.AcctID)
		for _, tx := range stmt.BankTranList.Transactions {
			row, err := p.convertTransaction(tx, institution, acct, model.AccountChecking)
			if err != nil {
				slog.Warn("Skipping OFX transaction", "account", acct, "fitid", tx.FiTID, "error", err)
				continue
			}
			rows = append(rows, row)
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ccStmts++
		acct := string(stmt.CCAcctFrom.AcctID)
		for _, tx := range stmt.BankTranList.Transactions {
			row, err := p.convertTransaction(tx, institution, acct, model.AccountCreditCard)
			if err != nil {
				slog.Warn("Skipping OFX transaction", "account", acct, "fitid", tx.FiTID, "error", err)
				continue
			}
			rows = append(rows, row)
		}
	}

	model.AssignIDs(rows)

	slog.Info("Parsed OFX file",
		"total_transactions", len(rows),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts,
		"institution", institution)

	return rows, nil
}

func (p *Parser) convertTransaction(tx ofxgo.Transaction, institution, accountID string, accountType model.AccountType) (model.RawTransaction, error) {
	amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
	if err != nil {
		return model.RawTransaction{}, fmt.Errorf("parsing amount: %w", err)
	}
	if accountType == model.AccountCreditCard {
		amount = amount.Neg()
	}

	posted := dateOnly(tx.DtPosted.Time)
	row := model.RawTransaction{
		TransactionDate:   posted,
		Description:       description(tx),
		Amount:            amount,
		CategorySource:    categoryByType[tx.TrnType.String()],
		Source:            sourceName(institution, accountID),
		AccountID:         accountID,
		AccountType:       accountType,
		AdditionalDetails: strings.TrimSpace(string(tx.Memo)),
	}
	if tx.DtUser != nil && !tx.DtUser.IsZero() {
		row.TransactionDate = dateOnly(tx.DtUser.Time)
		row.PostDate = &posted
	}
	return row, nil
}

// description prefers NAME, then PAYEE, then MEMO when NAME is a bare
// transaction-type word.
func description(tx ofxgo.Transaction) string {
	name := strings.TrimSpace(string(tx.Name))
	if name == "" && tx.Payee != nil {
		name = strings.TrimSpace(string(tx.Payee.Name))
	}
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

func institutionName(resp *ofxgo.Response) string {
	org := strings.ReplaceAll(strings.TrimSpace(string(resp.Signon.Org)), " ", "")
	if org == "" {
		return DefaultSource
	}
	return org
}

// sourceName builds "<Institution>_<last four of account>".
func sourceName(institution, accountID string) string {
	if len(accountID) > 4 {
		accountID = accountID[len(accountID)-4:]
	}
	if accountID == "" {
		return institution
	}
	return institution + "_" + accountID
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
