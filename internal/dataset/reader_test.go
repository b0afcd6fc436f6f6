package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

func TestReadCSV(t *testing.T) {
	input := "﻿ID,Statement,LABEL,speaker\n" +
		"1,The sky is green,0,bob\n" +
		",,,\n" +
		"2,\"Water boils at 100C, at sea level\",5,alice\n" +
		"3, Taxes rose ,4.0,carol\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "The sky is green", rows[0].Statement)
	assert.Equal(t, 0, rows[0].Label)
	assert.False(t, rows[0].GoldBinary)

	assert.Equal(t, "Water boils at 100C, at sea level", rows[1].Statement)
	assert.True(t, rows[1].GoldBinary)

	assert.Equal(t, "Taxes rose", rows[2].Statement)
	assert.Equal(t, 4, rows[2].Label)
	assert.True(t, rows[2].GoldBinary)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{name: "empty file", input: "", wantMsg: "empty"},
		{name: "missing label column", input: "statement,rating\nfoo,1\n", wantMsg: "label"},
		{name: "missing both columns", input: "a,b\n1,2\n", wantMsg: "statement, label"},
		{name: "empty statement", input: "statement,label\nok,1\n  ,3\n", wantMsg: "line 3"},
		{name: "bad label", input: "statement,label\nok,true\n", wantMsg: "line 2"},
		{name: "fractional label", input: "statement,label\nok,2.5\n", wantMsg: "not an integer"},
		{name: "missing label value", input: "statement,label\nok,\n", wantMsg: "empty label"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestReadJSONL(t *testing.T) {
	input := `{"statement": "Claim one", "label": 1}

{"Statement": "Claim two", "Label": "5"}
{"other": "ignored"}
`

	rows, err := ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Claim one", rows[0].Statement)
	assert.False(t, rows[0].GoldBinary)
	assert.Equal(t, 5, rows[1].Label)
	assert.True(t, rows[1].GoldBinary)
}

func TestReadJSONLErrors(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"statement\":\"a\",\"label\":1}\nnot json\n"))
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadJSONL(strings.NewReader(`{"statement":"","label":2}`))
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRead(t *testing.T) {
	rows, err := Read(strings.NewReader("statement,label\nx,4\n"), FormatFromName("data.CSV"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = Read(strings.NewReader(`{"statement":"x","label":4}`), FormatFromName("data.jsonl"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = Read(strings.NewReader(""), Format("xml"))
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
}
