package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

func TestWriteReadResults(t *testing.T) {
	results := []domain.RowResult{
		{
			Statement:   "Water boils at 100C",
			GoldBinary:  true,
			Predictions: []bool{true, false},
			Scores:      []float64{0.8, 0.4},
			Correctness: []bool{true, false},
		},
		{
			Statement:   "The moon is cheese",
			Predictions: []bool{},
			Scores:      []float64{},
			Correctness: []bool{},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	got, err := ReadResults(&buf)
	require.NoError(t, err)
	assert.Equal(t, results, got)
}

func TestReadResults_RejectsMisalignedRow(t *testing.T) {
	in := `{"statement":"x","gold_binary":true,"predictions":[true],"scores":[],"correctness":[true]}`

	_, err := ReadResults(strings.NewReader(in))

	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 1")
}

func TestReadResults_SkipsBlankLines(t *testing.T) {
	in := "\n" + `{"statement":"x","predictions":[false],"scores":[0.1],"correctness":[true]}` + "\n\n"

	got, err := ReadResults(strings.NewReader(in))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Statement)
}
