package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyapp/tally/internal/model"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20250301120000[0:GMT]
<DTEND>20250331120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250310120000[0:GMT]
<TRNAMT>-25.50
<FITID>2025031001
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250315120000[0:GMT]
<TRNAMT>1250.00
<FITID>2025031501
<NAME>PAYROLL DEPOSIT
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20250331120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseOFX(t *testing.T) {
	entries, err := ParseOFX(strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	debit := entries[0]
	assert.Equal(t, model.KindExpense, debit.Kind)
	assert.Equal(t, "25.5", debit.Amount.String())
	assert.Equal(t, "STARBUCKS STORE #1234", debit.Description)
	assert.Equal(t, "2025031001", debit.Ref)
	assert.Equal(t, "2025-03-10", debit.Date.Format(model.DateLayout))

	credit := entries[1]
	assert.Equal(t, model.KindIncome, credit.Kind)
	assert.Equal(t, "1250", credit.Amount.String())
}

func TestParseOFX_MixedCaseSeverity(t *testing.T) {
	fixed := strings.ReplaceAll(sampleBankOFX, "<SEVERITY>INFO", "<SEVERITY>Info")
	entries, err := ParseOFX(strings.NewReader(fixed))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestParseOFX_Invalid(t *testing.T) {
	_, err := ParseOFX(strings.NewReader("not an ofx file"))
	assert.Error(t, err)
}
