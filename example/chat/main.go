package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/siherrmann/fodmapper"
	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/helper"
	"github.com/siherrmann/fodmapper/model"
)

func main() {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
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

	chatbot.SetSink(printResults)

	fmt.Println("FODMAP assistant ready. Ask about an ingredient, a dish or a food group (empty line to quit).")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			break
		}

		answer := chatbot.Ask(context.Background(), query)
		fmt.Printf("\n%s\n", answer)
	}
}

// printResults renders the structured retrieval results on the console
func printResults(subject string, results *model.SubjectResults) {
	if len(results.Records) == 0 {
		fmt.Println("No specific data found in the knowledge graph for this query.")
		return
	}

	fmt.Printf("\nRetrieved for %s:\n", subject)

	for _, record := range results.Records {
		switch r := record.(type) {
		case *model.FoodResult:
			switch r.Status {
			case model.StatusAvoid:
				fmt.Printf("  [avoid] %s", r.Ingredient)
				if len(r.FodmapCategories) > 0 {
					fmt.Printf(" (contains %s)", strings.Join(r.FodmapCategories, ", "))
				}
				fmt.Println()
			case model.StatusRecommended:
				fmt.Printf("  [safe]  %s\n", r.Ingredient)
			default:
				fmt.Printf("  [?]     %s\n", r.Ingredient)
			}

		case *model.FoodGroupResult:
			fmt.Printf("  %s:\n", r.Group)
			for _, food := range r.Foods {
				fmt.Printf("    %s (%s)\n", food.Name, food.Status)
			}
		}
	}
}
