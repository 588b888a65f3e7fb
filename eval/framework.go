// Package eval scores the chatbot pipeline against curated test cases:
// classification accuracy, retrieval precision and response relevance.
package eval

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/model"
)

// TestCase is one curated evaluation scenario
type TestCase struct {
	Query                  string   `json:"query"`
	ExpectedClassification string   `json:"expected_classification"`
	ExpectedNodes          []string `json:"expected_nodes"`
	ExpectedResponse       string   `json:"expected_response"`
}

// testData is the on-disk shape of a test case file
type testData struct {
	TestCases []TestCase `json:"test_cases"`
}

// Result holds the scores for one test case
type Result struct {
	Query               string  `json:"query"`
	ClassificationScore float64 `json:"classification_score"`
	RetrievalScore      float64 `json:"retrieval_score"`
	RelevanceScore      float64 `json:"relevance_score"`
	Response            string  `json:"response"`
}

// Pipeline is the chatbot surface the framework evaluates
type Pipeline interface {
	Context(ctx context.Context, userQuery string) (*model.ContextBundle, *model.Classification)
	Ask(ctx context.Context, userQuery string) string
}

// Framework runs the evaluation suite against a chatbot pipeline
type Framework struct {
	pipeline Pipeline
	embedder llm.EmbedFunc
	cases    []TestCase
	log      *slog.Logger
}

// NewFramework creates an evaluation framework. The embedder is used for
// response-relevance scoring and may be the local or the OpenAI embedder.
func NewFramework(pipeline Pipeline, embedder llm.EmbedFunc, logger *slog.Logger) *Framework {
	if logger == nil {
		logger = slog.Default()
	}
	return &Framework{
		pipeline: pipeline,
		embedder: embedder,
		log:      logger,
	}
}

// LoadTestData loads test cases from a JSON file
func (f *Framework) LoadTestData(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read test data: %w", err)
	}
	return f.SetTestData(content)
}

// SetTestData parses test cases from raw JSON
func (f *Framework) SetTestData(content []byte) error {
	data := &testData{}
	if err := json.Unmarshal(content, data); err != nil {
		return fmt.Errorf("failed to parse test data: %w", err)
	}
	if len(data.TestCases) == 0 {
		return fmt.Errorf("test data contains no test cases")
	}
	f.cases = data.TestCases
	return nil
}

// EvaluateClassification scores classification accuracy: 1 when the
// predicted bucket matches the expected one, else 0.
func (f *Framework) EvaluateClassification(ctx context.Context, testCase TestCase) float64 {
	_, classification := f.pipeline.Context(ctx, testCase.Query)
	if string(classification.QueryType) == testCase.ExpectedClassification {
		return 1.0
	}
	return 0.0
}

// EvaluateRetrieval scores retrieval precision: the share of retrieved
// node names that appear in the expected set.
func (f *Framework) EvaluateRetrieval(ctx context.Context, testCase TestCase) float64 {
	bundle, _ := f.pipeline.Context(ctx, testCase.Query)

	retrieved := map[string]bool{}
	for _, results := range bundle.ResultsBySubject {
		for _, record := range results.Records {
			switch r := record.(type) {
			case *model.FoodResult:
				retrieved[strings.ToLower(r.Ingredient)] = true
			case *model.FoodGroupResult:
				retrieved[strings.ToLower(r.Group)] = true
			}
		}
	}
	if len(retrieved) == 0 {
		return 0.0
	}

	expected := map[string]bool{}
	for _, node := range testCase.ExpectedNodes {
		expected[strings.ToLower(node)] = true
	}

	matched := 0
	for node := range retrieved {
		if expected[node] {
			matched++
		}
	}

	return float64(matched) / float64(len(retrieved))
}

// EvaluateRelevance scores a response as the mean of its embedding cosine
// similarity to the query and to the expected response.
func (f *Framework) EvaluateRelevance(response string, testCase TestCase) (float64, error) {
	responseEmbedding, err := f.embedder(response)
	if err != nil {
		return 0, fmt.Errorf("failed to embed response: %w", err)
	}
	queryEmbedding, err := f.embedder(testCase.Query)
	if err != nil {
		return 0, fmt.Errorf("failed to embed query: %w", err)
	}
	expectedEmbedding, err := f.embedder(testCase.ExpectedResponse)
	if err != nil {
		return 0, fmt.Errorf("failed to embed expected response: %w", err)
	}

	querySimilarity := llm.CosineSimilarity(responseEmbedding, queryEmbedding)
	expectedSimilarity := llm.CosineSimilarity(responseEmbedding, expectedEmbedding)

	return (querySimilarity + expectedSimilarity) / 2, nil
}

// Run executes all test cases and returns their scores
func (f *Framework) Run(ctx context.Context) ([]Result, error) {
	if len(f.cases) == 0 {
		return nil, fmt.Errorf("no test cases loaded")
	}

	results := make([]Result, 0, len(f.cases))
	for _, testCase := range f.cases {
		f.log.Info("Evaluating test case", slog.String("query", testCase.Query))

		result := Result{Query: testCase.Query}
		result.ClassificationScore = f.EvaluateClassification(ctx, testCase)
		result.RetrievalScore = f.EvaluateRetrieval(ctx, testCase)

		result.Response = f.pipeline.Ask(ctx, testCase.Query)
		relevance, err := f.EvaluateRelevance(result.Response, testCase)
		if err != nil {
			f.log.Warn("Relevance scoring failed", slog.String("query", testCase.Query), slog.String("error", err.Error()))
		}
		result.RelevanceScore = relevance

		results = append(results, result)
	}

	return results, nil
}

// WriteReport writes the results as CSV
func WriteReport(w io.Writer, results []Result) error {
	writer := csv.NewWriter(w)

	header := []string{"query", "classification_score", "retrieval_score", "relevance_score", "response"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, result := range results {
		row := []string{
			result.Query,
			strconv.FormatFloat(result.ClassificationScore, 'f', 3, 64),
			strconv.FormatFloat(result.RetrievalScore, 'f', 3, 64),
			strconv.FormatFloat(result.RelevanceScore, 'f', 3, 64),
			result.Response,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
