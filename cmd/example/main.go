package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/gateway"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/models"
)

func main() {
	configPath := flag.String("config", "", "Path to the client configuration file")
	apiBase := flag.String("api-base", "", "Gateway base URL, overrides api_base")
	model := flag.String("model", "gpt-4o", "Model to call")
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

	logger.InitLogger(logger.ParseLevel(cfg.LogLevel), "example")
	defer logger.GetLogger().Sync()

	apiKey := os.Getenv("EDGEE_API_KEY")
	if apiKey == "" {
		apiKey = "test-key"
	}

	client, err := gateway.NewClient(apiKey, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create client: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()

	fmt.Println("Test 1: Simple string input")
	resp, err := client.Send(ctx, *model, models.StringPrompt("What is the capital of France?"))
	exitOnError(err)
	fmt.Printf("Content: %s\n", resp.Text)
	if resp.Usage != nil {
		fmt.Printf("Usage: prompt=%d completion=%d total=%d\n",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	} else {
		fmt.Println("Usage: none")
	}
	fmt.Println()

	fmt.Println("Test 2: Full input object with messages")
	resp, err = client.Send(ctx, *model, models.StructuredInput{
		Messages: []models.Message{
			models.SystemMessage("You are a helpful assistant."),
			models.UserMessage("Say hello!"),
		},
	})
	exitOnError(err)
	fmt.Printf("Content: %s\n", resp.Text)
	fmt.Println()

	fmt.Println("Test 3: With tools")
	resp, err = client.Send(ctx, *model, models.StructuredInput{
		Messages: []models.Message{models.UserMessage("What is the weather in Paris?")},
		Tools: []models.ToolDefinition{
			models.FunctionTool("get_weather", "Get the current weather for a location", map[string]any{
				"type": "object",
				"properties": map[string]any{
					"location": map[string]any{"type": "string", "description": "City name"},
				},
				"required": []string{"location"},
			}),
		},
		ToolChoice: "auto",
	})
	exitOnError(err)
	fmt.Printf("Content: %s\n", resp.Text)
	for _, call := range resp.Choices[0].Message.ToolCalls {
		fmt.Printf("Tool call: %s(%s)\n", call.Function.Name, call.Function.Arguments)
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	switch {
	case models.IsAuthenticationError(err):
		fmt.Fprintf(os.Stderr, "authentication failed: %v\n", err)
	case models.IsInvalidRequestError(err):
		fmt.Fprintf(os.Stderr, "invalid request: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "gateway error: %v\n", err)
	}
	os.Exit(1)
}
