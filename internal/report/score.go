package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/born-ml/noether/internal/tensor"
)

// Guess is one scored prediction.
type Guess struct {
	Example   int
	Expected  int64
	Predicted int64
}

// Correct reports whether the prediction matches the label.
func (g Guess) Correct() bool {
	return g.Expected == g.Predicted
}

// Score tallies classification results.
type Score struct {
	guesses []Guess
	correct int
}

// Add records a prediction for example.
func (s *Score) Add(example int, expected, predicted int64) {
	g := Guess{Example: example, Expected: expected, Predicted: predicted}
	if g.Correct() {
		s.correct++
	}
	s.guesses = append(s.guesses, g)
}

// AddBatch scores a minibatch of class probabilities [B, C] against labels
// [N, 1], where row i of probs is example first+i. The prediction for a row
// is the index of its largest probability.
func (s *Score) AddBatch(probs, labels *tensor.Tensor, first int) {
	expected := labels.IndexHandle()
	for i := 0; i < probs.Dims()[0]; i++ {
		row := probs.ExtractSlice(i)
		guess := row.FloatHandle().MaxArg()
		s.Add(first+i, expected.At(first+i, 0), int64(guess))
	}
}

// Correct returns the number of correct predictions.
func (s *Score) Correct() int {
	return s.correct
}

// Total returns the number of predictions.
func (s *Score) Total() int {
	return len(s.guesses)
}

// Percent returns the share of correct predictions in percent.
func (s *Score) Percent() float64 {
	if len(s.guesses) == 0 {
		return 0
	}
	return 100 * float64(s.correct) / float64(len(s.guesses))
}

// Guesses returns the recorded predictions in insertion order.
func (s *Score) Guesses() []Guess {
	return s.guesses
}

// Render writes the first limit predictions as a table, naming classes with
// name. A non-positive limit renders every prediction.
func (s *Score) Render(w io.Writer, name func(int64) string, limit int) {
	rows := s.guesses
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	data := make([][]string, 0, len(rows))
	for _, g := range rows {
		mark := ""
		if g.Correct() {
			mark = "*"
		}
		data = append(data, []string{strconv.Itoa(g.Example), name(g.Expected), name(g.Predicted), mark})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "EXPECTED", "GOT", ""})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// String summarizes the score as "37/100 (37.0%)".
func (s *Score) String() string {
	return fmt.Sprintf("%d/%d (%.1f%%)", s.correct, len(s.guesses), s.Percent())
}
