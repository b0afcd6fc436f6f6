package domain

import "time"

// LabelRealThreshold is the smallest ordinal truth-scale label counted as the
// "true/real" class. Labels below it are "false/fake".
const LabelRealThreshold = 4

// ClaimRow is one dataset record. GoldBinary is fixed when the row is read.
type ClaimRow struct {
	Statement  string
	Label      int
	GoldBinary bool
}

// NewClaimRow binarizes the label once. Downstream code must read GoldBinary
// instead of recomputing it from Label.
func NewClaimRow(statement string, label int) ClaimRow {
	return ClaimRow{
		Statement:  statement,
		Label:      label,
		GoldBinary: label >= LabelRealThreshold,
	}
}

// Attempt is the parsed outcome of one successful model call.
type Attempt struct {
	Predicted bool
	Score     float64
	Correct   bool
}

// RowResult aggregates the successful attempts for one row. The three slices
// are index-aligned in iteration order with failed iterations omitted.
type RowResult struct {
	Statement   string    `json:"statement"`
	GoldBinary  bool      `json:"gold_binary"`
	Predictions []bool    `json:"predictions"`
	Scores      []float64 `json:"scores"`
	Correctness []bool    `json:"correctness"`
}

// NewRowResult starts an empty result for row.
func NewRowResult(row ClaimRow) RowResult {
	return RowResult{
		Statement:   row.Statement,
		GoldBinary:  row.GoldBinary,
		Predictions: []bool{},
		Scores:      []float64{},
		Correctness: []bool{},
	}
}

// Append records one attempt, keeping the slices aligned.
func (r *RowResult) Append(a Attempt) {
	r.Predictions = append(r.Predictions, a.Predicted)
	r.Scores = append(r.Scores, a.Score)
	r.Correctness = append(r.Correctness, a.Correct)
}

// Attempts returns the number of recorded attempts.
func (r RowResult) Attempts() int {
	return len(r.Predictions)
}

// Valid reports whether the slices are aligned and within the iteration count.
func (r RowResult) Valid(iterations int) bool {
	n := len(r.Predictions)

	return n == len(r.Scores) && n == len(r.Correctness) && n <= iterations
}

// ModelSet names the model used for each LLM role. It is captured when a job is
// submitted and passed by value so workers never observe a change mid-run.
type ModelSet struct {
	Extract  string `json:"extract"`
	Classify string `json:"classify"`
	Research string `json:"research"`
	Summary  string `json:"summary"`
}

// JobParams are the immutable parameters of a benchmark run.
type JobParams struct {
	UseExternalInfo bool            `json:"use_external_info"`
	PromptVariant   PromptVariant   `json:"prompt_variant"`
	OutputType      OutputType      `json:"output_type"`
	Iterations      int             `json:"iterations"`
	RetrievalPolicy RetrievalPolicy `json:"retrieval_policy"`
	Models          ModelSet        `json:"models"`
}

// BenchmarkJob is the queue record of a benchmark run.
type BenchmarkJob struct {
	ID         string     `json:"id"`
	Status     JobStatus  `json:"status"`
	Params     JobParams  `json:"params"`
	Error      string     `json:"error,omitempty"`
	RowCount   int        `json:"row_count"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ConfusionMatrix counts predictions with "false/fake" as the positive class.
// TP is a correctly detected fake.
type ConfusionMatrix struct {
	TP int `json:"TP"`
	FP int `json:"FP"`
	FN int `json:"FN"`
	TN int `json:"TN"`
}

// Total returns the sum of all cells.
func (c ConfusionMatrix) Total() int {
	return c.TP + c.FP + c.FN + c.TN
}

// ScoreHistogram holds fixed-width bins over [0, 1].
type ScoreHistogram struct {
	BinEdges []float64 `json:"bin_edges"`
	Counts   []int     `json:"counts"`
}

// Summary is the aggregate output of one benchmark run.
type Summary struct {
	Accuracy            float64           `json:"accuracy"`
	Precision           float64           `json:"precision"`
	Recall              float64           `json:"recall"`
	F1Score             float64           `json:"f1_score"`
	ConfusionMatrix     ConfusionMatrix   `json:"confusion_matrix"`
	ScoreHistogram      ScoreHistogram    `json:"score_histogram"`
	IterationAccuracy   []float64         `json:"iteration_accuracy"`
	TotalPredictions    int               `json:"total_predictions"`
	Policy              AggregationPolicy `json:"policy"`
	RowsEvaluated       int               `json:"rows_evaluated"`
	RowsWithoutAttempts int               `json:"rows_without_attempts"`
	DurationSeconds     float64           `json:"duration_seconds"`
}

// CurvePoint is one (x, y) point of a ROC or PR curve.
type CurvePoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Threshold float64 `json:"threshold"`
}

// Curves holds the ROC and PR curves of one result set with "fake" as the
// class of interest. ROC points are (FPR, TPR); PR points are (recall, precision).
type Curves struct {
	JobID   string       `json:"job_id,omitempty"`
	Samples int          `json:"samples"`
	ROC     []CurvePoint `json:"roc"`
	ROCAUC  float64      `json:"roc_auc"`
	PR      []CurvePoint `json:"pr"`
	PRAUC   float64      `json:"pr_auc"`
}
