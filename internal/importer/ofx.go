// Package importer loads bank statements into the ledger. OFX/QFX files
// are parsed into statement entries, signed amounts become expense or
// income rows, and the bank's FITID keys per-user deduplication so a
// statement can be re-imported safely.
package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/tallyapp/tally/internal/model"
)

// Entry is a single statement line in ledger terms.
type Entry struct {
	Date        time.Time
	Amount      decimal.Decimal
	Kind        model.TransactionKind
	Description string
	// Ref is the bank's FITID; empty when the statement omits one.
	Ref string
}

var severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)

// Banks emit slightly broken SGML often enough that the parser needs a
// cleanup pass: mixed-case SEVERITY values and leading whitespace both
// trip ofxgo.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	return severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
}

// ParseOFX reads an OFX/QFX statement and returns its entries. Bank and
// credit card statements are both handled.
func ParseOFX(r io.Reader) ([]Entry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement: %w", err)
	}

	var entries []Entry
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			for _, tx := range stmt.BankTranList.Transactions {
				entries = append(entries, convert(tx))
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			for _, tx := range stmt.BankTranList.Transactions {
				entries = append(entries, convert(tx))
			}
		}
	}

	return entries, nil
}

// convert maps one OFX transaction onto a ledger entry. OFX amounts are
// signed: debits are negative, credits positive.
func convert(tx ofxgo.Transaction) Entry {
	amount, _ := tx.TrnAmt.Float64()
	kind := model.KindIncome
	if amount < 0 {
		amount = -amount
		kind = model.KindExpense
	}

	return Entry{
		Date:        tx.DtPosted.Time,
		Amount:      decimal.NewFromFloat(amount),
		Kind:        kind,
		Description: description(tx),
		Ref:         string(tx.FiTID),
	}
}

func description(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	if name := strings.TrimSpace(string(tx.Name)); name != "" {
		return name
	}
	return strings.TrimSpace(string(tx.Memo))
}
