package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

// WriteResults writes one RowResult per line.
func WriteResults(w io.Writer, results []domain.RowResult) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for i, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode result %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}

	return nil
}

// ReadResults parses exported per-row results. Rows whose attempt arrays are
// not index-aligned are rejected.
func ReadResults(r io.Reader) ([]domain.RowResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	var (
		results []domain.RowResult
		line    int
	)

	for scanner.Scan() {
		line++

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var res domain.RowResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", apperrors.ErrInvalidInput, line, err)
		}

		n := len(res.Predictions)
		if len(res.Scores) != n || len(res.Correctness) != n {
			return nil, fmt.Errorf("%w: line %d: predictions, scores and correctness differ in length",
				apperrors.ErrInvalidInput, line)
		}

		results = append(results, res)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}

	return results, nil
}
