package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed graph.sql
var graphSQL string

// GraphFunctions lists the functions graph.sql must define, for verification
var GraphFunctions = []string{
	"init_graph",
	"clear_graph",
	"insert_diet_type",
	"insert_food",
	"insert_food_group",
	"insert_fodmap_category",
	"insert_alternative_name",
	"insert_graph_edge",
	"update_food_embedding",
	"select_foods_by_similarity",
	"graph_stats",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadGraphSql loads the knowledge-graph SQL functions
func LoadGraphSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, GraphFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing graph functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(graphSQL)
	if err != nil {
		return fmt.Errorf("error executing graph SQL: %w", err)
	}

	exist, err := checkFunctions(db, GraphFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL graph functions loaded successfully")
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
