// Package fodmapper is a diet-advice chatbot over a FODMAP knowledge graph.
// A user query is classified, turned into graph lookups, and the retrieved
// facts are handed to an LLM to compose the final answer.
package fodmapper

import (
	"context"
	"log/slog"
	"os"

	"github.com/siherrmann/fodmapper/core/classify"
	"github.com/siherrmann/fodmapper/core/compose"
	"github.com/siherrmann/fodmapper/core/ingest"
	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/core/meal"
	"github.com/siherrmann/fodmapper/core/route"
	"github.com/siherrmann/fodmapper/database"
	"github.com/siherrmann/fodmapper/helper"
	"github.com/siherrmann/fodmapper/model"
	"github.com/siherrmann/fodmapper/prompts"
	loadSql "github.com/siherrmann/fodmapper/sql"
)

// SinkFunc receives the structured per-subject results of a turn, letting
// a presentation surface (console, UI) render them without the core knowing
// about rendering.
type SinkFunc func(subject string, results *model.SubjectResults)

// Chatbot wires the full pipeline: classification, meal decomposition,
// graph retrieval and response composition over one graph-store connection.
type Chatbot struct {
	DB        *helper.Database
	Graph     *database.GraphDBHandler
	Processor *route.Processor
	Assembler *route.Assembler
	Composer  *compose.Composer
	Builder   *ingest.Builder
	// Presentation
	sink SinkFunc
	// Logging
	log *slog.Logger
}

// NewChatbot creates a Chatbot instance with all components initialized
func NewChatbot(dbConfig *helper.DatabaseConfiguration, completer llm.Completer, config model.ChatConfig) (*Chatbot, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("fodmapper", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	graph, err := database.NewGraphDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create graph handler", err)
	}

	classifier := classify.NewClassifier(completer, config, logger)
	analyzer := meal.NewAnalyzer(completer, config, logger)
	processor := route.NewProcessor(classifier, analyzer, logger)
	assembler := route.NewAssembler(graph, config, logger)
	composer := compose.NewComposer(completer, config, logger)
	builder := ingest.NewBuilder(completer, graph, config, logger)

	return &Chatbot{
		DB:        db,
		Graph:     graph,
		Processor: processor,
		Assembler: assembler,
		Composer:  composer,
		Builder:   builder,
		log:       logger,
	}, nil
}

// Close closes the database connection
func (c *Chatbot) Close() error {
	if c.DB != nil && c.DB.Instance != nil {
		return c.DB.Instance.Close()
	}
	return nil
}

// SetSink sets the presentation sink receiving structured results per turn
func (c *Chatbot) SetSink(sink SinkFunc) {
	c.sink = sink
}

// UseDefaultEmbedder sets up the local sentence-transformer embedder for
// name embeddings during ingestion and for the semantic lookup fallback.
func (c *Chatbot) UseDefaultEmbedder() error {
	embedder, err := llm.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	c.Graph.SetEmbedder(database.EmbedFunc(embedder))
	c.Assembler.SetSemanticSearcher(c.Graph)
	c.Builder.SetEmbedder(embedder)
	return nil
}

// Context runs classification and retrieval for a user query and returns
// the assembled evidence without composing a response.
func (c *Chatbot) Context(ctx context.Context, userQuery string) (*model.ContextBundle, *model.Classification) {
	specs, classification := c.Processor.ProcessQuery(ctx, userQuery)
	bundle := c.Assembler.AssembleContext(ctx, specs, classification)
	return bundle, classification
}

// Ask processes one user turn: classify, retrieve, compose. It always
// returns an answer; every failure along the pipeline has a fallback.
func (c *Chatbot) Ask(ctx context.Context, userQuery string) string {
	c.log.Info("Retrieving information from knowledge graph")
	bundle, _ := c.Context(ctx, userQuery)

	contextText := bundle.Text
	if contextText == "" {
		contextText = model.NoContextSentinel
	}

	if c.sink != nil {
		for subject, results := range bundle.ResultsBySubject {
			c.sink(subject, results)
		}
	}

	c.log.Info("Generating response", slog.Int("num_subjects", len(bundle.ResultsBySubject)))

	return c.Composer.Compose(ctx, prompts.System, contextText, userQuery)
}

// IngestSource parses raw FODMAP diet text and rebuilds the knowledge
// graph from it. Returns the resulting graph statistics.
func (c *Chatbot) IngestSource(ctx context.Context, content string) (*database.GraphStats, error) {
	data, err := c.Builder.ParseSource(ctx, content)
	if err != nil {
		return nil, err
	}

	if err := c.Builder.BuildGraph(ctx, data); err != nil {
		return nil, err
	}

	stats, err := c.Builder.Stats(ctx)
	if err != nil {
		return nil, err
	}

	c.log.Info("Knowledge graph created",
		slog.Int("total_foods", stats.TotalFoods),
		slog.Int("foods_to_avoid", stats.FoodsToAvoid),
		slog.Int("recommended_foods", stats.RecommendedFoods),
	)

	return stats, nil
}
