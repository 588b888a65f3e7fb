package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/siherrmann/fodmapper"
	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/helper"
	"github.com/siherrmann/fodmapper/model"
)

func main() {
	sourcePath := flag.String("source", "fodmap.txt", "path to the raw FODMAP diet text")
	withEmbeddings := flag.Bool("embeddings", false, "store food name embeddings for similarity lookups")
	flag.Parse()

	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
	}

	content, err := os.ReadFile(*sourcePath)
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		log.Fatalf("Failed to load database configuration: %v", err)
	}

	completer := llm.NewOpenAIClient(llm.ClientConfig{APIKey: apiKey})

	chatbot, err := fodmapper.NewChatbot(dbConfig, completer, model.DefaultChatConfig())
	if err != nil {
		log.Fatalf("Failed to create chatbot: %v", err)
	}
	defer chatbot.Close()

	if *withEmbeddings {
		if err := chatbot.UseDefaultEmbedder(); err != nil {
			log.Fatalf("Failed to set up embedder: %v", err)
		}
	}

	fmt.Println("Parsing FODMAP data and building knowledge graph...")
	stats, err := chatbot.IngestSource(context.Background(), string(content))
	if err != nil {
		log.Fatalf("Failed to ingest source: %v", err)
	}

	fmt.Println("\nKnowledge Graph Statistics:")
	fmt.Printf("Total foods: %d\n", stats.TotalFoods)
	fmt.Printf("Foods to avoid: %d\n", stats.FoodsToAvoid)
	fmt.Printf("Recommended foods: %d\n", stats.RecommendedFoods)
	fmt.Printf("Categorized foods: %d\n", stats.CategorizedFoods)
}
