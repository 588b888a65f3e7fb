package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/siherrmann/fodmapper/helper"
	"github.com/siherrmann/fodmapper/model"
	loadSql "github.com/siherrmann/fodmapper/sql"
)

// EmbedFunc is a function that generates an embedding for text
type EmbedFunc func(text string) ([]float32, error)

// GraphDBHandlerFunctions defines the interface for knowledge-graph database operations.
type GraphDBHandlerFunctions interface {
	Query(ctx context.Context, query string, params map[string]interface{}) []model.Row
	InsertDietType(name string, description string) (uuid.UUID, error)
	InsertFood(name string, fodmapLevel string, servingInfo string) (uuid.UUID, error)
	InsertFoodGroup(name string) (uuid.UUID, error)
	InsertFodmapCategory(name string, description string) (uuid.UUID, error)
	InsertAlternativeName(name string) (uuid.UUID, error)
	InsertEdge(fromID uuid.UUID, toID uuid.UUID, edgeType model.EdgeType, metadata model.Metadata) error
	UpdateFoodEmbedding(id uuid.UUID, embedding []float32) error
	SimilarFoods(ctx context.Context, name string, topK int) ([]string, error)
	ClearGraph(ctx context.Context) error
	Stats(ctx context.Context) (*GraphStats, error)
}

// GraphStats summarizes the relationships in the knowledge graph
type GraphStats struct {
	TotalFoods       int `json:"total_foods"`
	FoodsToAvoid     int `json:"foods_to_avoid"`
	RecommendedFoods int `json:"recommended_foods"`
	CategorizedFoods int `json:"categorized_foods"`
}

// GraphDBHandler handles knowledge-graph database operations
type GraphDBHandler struct {
	db       *helper.Database
	embedder EmbedFunc // Optional, enables SimilarFoods
}

// NewGraphDBHandler creates a new knowledge-graph database handler.
// It initializes the database connection and loads the graph SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewGraphDBHandler(db *helper.Database, force bool) (*GraphDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	graphDbHandler := &GraphDBHandler{
		db: db,
	}

	err := loadSql.LoadGraphSql(graphDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load graph sql", err)
	}

	err = graphDbHandler.CreateTables()
	if err != nil {
		return nil, helper.NewError("create tables", err)
	}

	db.Logger.Info("Initialized GraphDBHandler")

	return graphDbHandler, nil
}

// SetEmbedder sets the embedding function used for similarity lookups
func (h *GraphDBHandler) SetEmbedder(embedder EmbedFunc) {
	h.embedder = embedder
}

// CreateTables creates the graph node and edge tables.
// If the tables already exist, it does not create them again.
// It also creates all necessary indexes.
func (h *GraphDBHandler) CreateTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_graph();`)
	if err != nil {
		log.Panicf("error initializing graph tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created graph tables")

	return nil
}

// Query executes a parameterized read query and returns the rows as generic
// records. Named :placeholders are rebound to positional parameters.
// Backend errors never propagate: they are logged and an empty row set is
// returned so the calling pipeline continues without data for that subject.
func (h *GraphDBHandler) Query(ctx context.Context, query string, params map[string]interface{}) []model.Row {
	bound, args, err := rebindNamed(query, params)
	if err != nil {
		h.db.Logger.Error("Graph query parameter binding failed", slog.String("error", err.Error()))
		return []model.Row{}
	}

	h.db.Logger.Debug("Executing graph query", slog.Int("num_params", len(args)))

	rows, err := h.db.Instance.QueryContext(ctx, bound, args...)
	if err != nil {
		h.db.Logger.Error("Graph query failed", slog.String("error", err.Error()))
		return []model.Row{}
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		h.db.Logger.Error("Graph query scan failed", slog.String("error", err.Error()))
		return []model.Row{}
	}

	h.db.Logger.Debug("Graph query returned rows", slog.Int("num_rows", len(records)))

	return records
}

// InsertDietType inserts a diet type node (or updates its description)
func (h *GraphDBHandler) InsertDietType(name string, description string) (uuid.UUID, error) {
	var id uuid.UUID
	var n, d string
	var createdAt time.Time

	row := h.db.Instance.QueryRow(`SELECT * FROM insert_diet_type($1, $2)`, name, description)
	if err := row.Scan(&id, &n, &d, &createdAt); err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}
	return id, nil
}

// InsertFood inserts a food node, merging on its lowercased name
func (h *GraphDBHandler) InsertFood(name string, fodmapLevel string, servingInfo string) (uuid.UUID, error) {
	var id uuid.UUID
	var n, level, serving string
	var createdAt time.Time

	row := h.db.Instance.QueryRow(`SELECT * FROM insert_food($1, $2, $3)`, name, fodmapLevel, servingInfo)
	if err := row.Scan(&id, &n, &level, &serving, &createdAt); err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}
	return id, nil
}

// InsertFoodGroup inserts a food group node
func (h *GraphDBHandler) InsertFoodGroup(name string) (uuid.UUID, error) {
	var id uuid.UUID
	var n string
	var createdAt time.Time

	row := h.db.Instance.QueryRow(`SELECT * FROM insert_food_group($1)`, name)
	if err := row.Scan(&id, &n, &createdAt); err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}
	return id, nil
}

// InsertFodmapCategory inserts a FODMAP category node
func (h *GraphDBHandler) InsertFodmapCategory(name string, description string) (uuid.UUID, error) {
	var id uuid.UUID
	var n, d string
	var createdAt time.Time

	row := h.db.Instance.QueryRow(`SELECT * FROM insert_fodmap_category($1, $2)`, name, description)
	if err := row.Scan(&id, &n, &d, &createdAt); err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}
	return id, nil
}

// InsertAlternativeName inserts an alternative name node
func (h *GraphDBHandler) InsertAlternativeName(name string) (uuid.UUID, error) {
	var id uuid.UUID
	var n string
	var createdAt time.Time

	row := h.db.Instance.QueryRow(`SELECT * FROM insert_alternative_name($1)`, name)
	if err := row.Scan(&id, &n, &createdAt); err != nil {
		return uuid.Nil, helper.NewError("scan", err)
	}
	return id, nil
}

// InsertEdge inserts a relationship between two nodes (or updates its metadata)
func (h *GraphDBHandler) InsertEdge(fromID uuid.UUID, toID uuid.UUID, edgeType model.EdgeType, metadata model.Metadata) error {
	if metadata == nil {
		metadata = model.Metadata{}
	}

	_, err := h.db.Instance.Exec(
		`SELECT * FROM insert_graph_edge($1, $2, $3, $4)`,
		fromID,
		toID,
		string(edgeType),
		metadata,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// UpdateFoodEmbedding stores the name embedding of a food
func (h *GraphDBHandler) UpdateFoodEmbedding(id uuid.UUID, embedding []float32) error {
	_, err := h.db.Instance.Exec(
		`SELECT update_food_embedding($1, $2)`,
		id,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SimilarFoods returns the names of the foods closest to the given name by
// embedding cosine distance. Requires an embedder set via SetEmbedder.
func (h *GraphDBHandler) SimilarFoods(ctx context.Context, name string, topK int) ([]string, error) {
	if h.embedder == nil {
		return nil, helper.NewError("similar foods", fmt.Errorf("no embedder set, use SetEmbedder() first"))
	}
	if topK <= 0 {
		topK = 3
	}

	embedding, err := h.embedder(name)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_foods_by_similarity($1, $2)`,
		pgvector.NewVector(embedding),
		topK,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var id uuid.UUID
		var foodName string
		var distance float64
		if err := rows.Scan(&id, &foodName, &distance); err != nil {
			return nil, helper.NewError("scan", err)
		}
		names = append(names, foodName)
	}

	return names, rows.Err()
}

// ClearGraph removes all nodes and edges. Used by the ingestion builder
// before a full rebuild.
func (h *GraphDBHandler) ClearGraph(ctx context.Context) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT clear_graph()`)
	if err != nil {
		return helper.NewError("exec", err)
	}

	h.db.Logger.Info("Cleared knowledge graph")

	return nil
}

// Stats returns relationship statistics for the knowledge graph
func (h *GraphDBHandler) Stats(ctx context.Context) (*GraphStats, error) {
	stats := &GraphStats{}
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM graph_stats()`)
	if err := row.Scan(&stats.TotalFoods, &stats.FoodsToAvoid, &stats.RecommendedFoods, &stats.CategorizedFoods); err != nil {
		return nil, helper.NewError("scan", err)
	}
	return stats, nil
}

// scanRows converts sql rows into generic records. JSON-aggregated columns
// are decoded; everything else comes back as a string.
func scanRows(rows *sql.Rows) ([]model.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []model.Row{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := model.Row{}
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// normalizeValue maps driver values to plain Go values: byte slices holding
// JSON documents are decoded, other byte slices become strings.
func normalizeValue(v interface{}) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if len(b) > 0 && (b[0] == '[' || b[0] == '{') {
		var decoded interface{}
		if err := json.Unmarshal(b, &decoded); err == nil {
			return decoded
		}
	}
	return string(b)
}

// rebindNamed rewrites named :placeholders to positional $n parameters and
// collects the bound arguments. Double colons (casts) are left untouched.
func rebindNamed(query string, params map[string]interface{}) (string, []interface{}, error) {
	var (
		out      []byte
		args     []interface{}
		position = map[string]int{}
	)

	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != ':' {
			out = append(out, c)
			continue
		}

		// :: is a cast, not a parameter
		if i+1 < len(query) && query[i+1] == ':' {
			out = append(out, ':', ':')
			i++
			continue
		}

		start := i + 1
		end := start
		for end < len(query) && isNameChar(query[end]) {
			end++
		}
		if end == start {
			out = append(out, c)
			continue
		}

		name := query[start:end]
		value, ok := params[name]
		if !ok {
			return "", nil, fmt.Errorf("missing parameter %q", name)
		}

		n, seen := position[name]
		if !seen {
			args = append(args, bindValue(value))
			n = len(args)
			position[name] = n
		}
		out = append(out, fmt.Sprintf("$%d", n)...)
		i = end - 1
	}

	return string(out), args, nil
}

func isNameChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// bindValue wraps slice parameters for the postgres driver
func bindValue(v interface{}) interface{} {
	switch v.(type) {
	case []string, []int, []int64, []float64:
		return pq.Array(v)
	}
	return v
}
