package fio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatement_ExampleData(t *testing.T) {
	txs, err := ParseStatement(exampleStatement)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	first := txs[0]
	assert.Equal(t, "1148734530", first.FioID)
	require.NotNil(t, first.Date)
	assert.Equal(t, time.Date(2012, 6, 26, 0, 0, 0, 0, time.UTC), *first.Date)
	assert.True(t, first.Amount.Equal(decimal.NewFromInt(1)), "amount %s", first.Amount)
	assert.Equal(t, "CZK", first.Currency)
	require.NotNil(t, first.VariableSymbol)
	assert.Equal(t, "25070101", *first.VariableSymbol)
	require.NotNil(t, first.SpecificSymbol)
	assert.Equal(t, "1230101", *first.SpecificSymbol)
	require.NotNil(t, first.ConstantSymbol)
	assert.Equal(t, "0308", *first.ConstantSymbol)

	// String date form with a zone suffix.
	second := txs[1]
	require.NotNil(t, second.Date)
	assert.Equal(t, time.Date(2012, 7, 27, 0, 0, 0, 0, time.UTC), *second.Date)
	assert.Nil(t, second.ConstantSymbol)

	third := txs[2]
	assert.True(t, third.Amount.Equal(decimal.NewFromInt(-1400)), "amount %s", third.Amount)
	require.NotNil(t, third.InstructionID)
	assert.Equal(t, "22258237", *third.InstructionID)
	require.NotNil(t, third.BIC)
	assert.Equal(t, "RZBCCZPP", *third.BIC)
}

func TestParseStatement_MissingWrapperYieldsZeroTransactions(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"something":"else"}`,
		`{"accountStatement":{}}`,
		`{"accountStatement":{"transactionList":null}}`,
	} {
		txs, err := ParseStatement([]byte(body))
		require.NoError(t, err, "body %s", body)
		assert.Empty(t, txs, "body %s", body)
	}
}

func TestParseStatement_InvalidJSONIsMalformed(t *testing.T) {
	_, err := ParseStatement([]byte("not a json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseStatement_UnparseableDateIsAbsent(t *testing.T) {
	body := `{"accountStatement":{"transactionList":{"transaction":[
		{"column22":{"value":"tx-1"},"column0":{"value":"someday soon"},"column1":{"value":10.5},"column14":{"value":"CZK"}}
	]}}}`

	txs, err := ParseStatement([]byte(body))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].Date)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromFloat(10.5)))
}

func TestParseStatement_NullColumnValuesAreAbsent(t *testing.T) {
	body := `{"accountStatement":{"transactionList":{"transaction":[
		{"column22":{"value":"tx-1"},"column0":{"value":null},"column1":{"value":null},"column5":{"value":null},"column14":{"value":"CZK"}}
	]}}}`

	txs, err := ParseStatement([]byte(body))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	// A null date must stay absent, not collapse to the zero epoch.
	assert.Nil(t, txs[0].Date)
	assert.Nil(t, txs[0].VariableSymbol)
	assert.True(t, txs[0].Amount.IsZero())
}

func TestParseStatement_EntryWithoutNaturalKeyIsDropped(t *testing.T) {
	body := `{"accountStatement":{"transactionList":{"transaction":[
		{"column0":{"value":1340712000000},"column1":{"value":1.0}},
		{"column22":{"value":"tx-2"},"column1":{"value":2.0}}
	]}}}`

	txs, err := ParseStatement([]byte(body))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "tx-2", txs[0].FioID)
}

func TestMaskToken(t *testing.T) {
	token := "abc/123+x"
	text := "GET https://api.example.com/periods/abc/123+x/foo failed, also encoded abc%2F123%2Bx"

	masked := MaskToken(text, token)

	assert.NotContains(t, masked, token)
	assert.NotContains(t, masked, "abc%2F123%2Bx")
	assert.Contains(t, masked, "<token>")
}

func TestMaskToken_EmptyInputs(t *testing.T) {
	assert.Equal(t, "text", MaskToken("text", ""))
	assert.Equal(t, "", MaskToken("", "token"))
}

func TestMaskTokenDisplay(t *testing.T) {
	assert.Equal(t, "", MaskTokenDisplay(""))
	assert.Equal(t, "****", MaskTokenDisplay("short"))
	assert.Equal(t, "abcd****wxyz", MaskTokenDisplay("abcdefghwxyz"))
}
