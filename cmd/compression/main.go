package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/gateway"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/models"
)

func main() {
	configPath := flag.String("config", "", "Path to the client configuration file")
	apiBase := flag.String("api-base", "", "Gateway base URL, overrides api_base")
	model := flag.String("model", "gpt-4o", "Model to call")
	rate := flag.Float64("rate", 0.5, "Compression rate in [0,1]")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *apiBase != "" {
		cfg.APIBase = *apiBase
	}

	logger.InitLogger(logger.ParseLevel(cfg.LogLevel), "compression")
	defer logger.GetLogger().Sync()

	client, err := gateway.NewClient(os.Getenv("EDGEE_API_KEY"), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create client: %v\n", err)
		os.Exit(1)
	}

	rule := strings.Repeat("=", 70)
	fmt.Println(rule)
	fmt.Println("Edgee Token Compression Example")
	fmt.Println(rule)
	fmt.Println()

	fmt.Println("Request with compression enabled")
	fmt.Println(strings.Repeat("-", 70))
	resp, err := client.Send(context.Background(), *model, models.StructuredInput{
		Messages:          []models.Message{models.UserMessage("Explain quantum computing in simple terms, covering qubits, superposition and entanglement.")},
		EnableCompression: true,
		CompressionRate:   models.Rate(*rate),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Response: %s\n\n", resp.Text)

	if u := resp.Usage; u != nil {
		fmt.Println("Token Usage:")
		fmt.Printf("  Prompt tokens:     %d\n", u.PromptTokens)
		fmt.Printf("  Completion tokens: %d\n", u.CompletionTokens)
		fmt.Printf("  Total tokens:      %d\n\n", u.TotalTokens)
	}

	if c := resp.Compression; c != nil {
		fmt.Println("Compression Metrics:")
		fmt.Printf("  Input tokens:     %d\n", c.InputTokens)
		fmt.Printf("  Saved tokens:     %d\n", c.SavedTokens)
		fmt.Printf("  Compression rate: %.2f%%\n", c.Rate*100)
		fmt.Printf("  Token savings:    %d tokens saved!\n", c.SavedTokens)
	} else {
		fmt.Println("No compression data available in response.")
		fmt.Println("Note: Compression data is only returned when compression is enabled")
		fmt.Println("      and supported by your API key configuration.")
	}

	fmt.Println()
	fmt.Println(rule)
}
