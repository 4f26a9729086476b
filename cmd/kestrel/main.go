package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/kestrel/internal/agent"
	"github.com/rahul/kestrel/internal/gateway"
	"github.com/rahul/kestrel/internal/governance"
	"github.com/rahul/kestrel/internal/observability"
	"github.com/rahul/kestrel/internal/store"
	"github.com/rahul/kestrel/internal/tools"
	"github.com/rahul/kestrel/internal/weather"
	"github.com/rahul/kestrel/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func main() {
	observability.PrintBanner()
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.json")

	tgCfg, ok := cfg.GetTelegramConfig()
	if !ok {
		log.Fatal("Telegram gateway is not enabled or token is missing")
	}

	logger := observability.NewLogger()

	db, err := store.New(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}

	// Tools
	registry := tools.NewRegistry()

	searchTool, err := tools.NewSearchTool()
	if err != nil {
		log.Printf("Warning: Failed to initialize search tool: %v", err)
	} else {
		registry.Register(searchTool)
	}
	registry.Register(tools.NewFilesystemTool(cfg.App.Workspace))
	registry.Register(tools.NewScraperTool())
	registry.Register(tools.NewShellTool(cfg.App.Workspace))
	registry.Register(tools.NewBrowserTool())

	gate := governance.NewGate()
	// Default safety rules: block dangerous destructive commands.
	_ = gate.DenyArguments(`rm\s+-rf`)
	_ = gate.DenyArguments(`mkfs`)
	_ = gate.DenyArguments(`shutdown`)
	_ = gate.DenyArguments(`reboot`)

	// LLM (using default enabled provider)
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}

	var llm llms.Model
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented in main", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	promptsDir := cfg.App.Prompts
	if promptsDir == "" {
		promptsDir = "./prompts"
	}
	prompts := agent.NewPromptManager(promptsDir)

	loop := agent.NewToolLoop(llm, registry, gate, db, prompts, logger)

	pipeline := weather.New(
		weather.NewHTTPFetcher(time.Duration(cfg.Weather.TimeoutSeconds)*time.Second),
		loop,
		logger,
		weather.Options{
			WttrBaseURL: cfg.Weather.WttrBaseURL,
			GeocodeURL:  cfg.Weather.GeocodeURL,
			ForecastURL: cfg.Weather.ForecastURL,
		},
	)

	executor := agent.NewExecutor(loop, pipeline, gate, logger)
	planner := agent.NewPlanner(&agent.LLMReviser{Model: llm, System: prompts.GetPlannerPrompt()}, logger)

	// The gateway and runner reference each other: the runner sends
	// through the gateway, the gateway feeds inbound messages to the
	// runner. Wire the handler after both exist.
	var runner *agent.Runner
	tg, err := gateway.NewTelegramGateway(tgCfg.Token, func(ctx context.Context, chatID string, text string) {
		runner.HandleMessage(ctx, chatID, agent.Message{Text: text})
	})
	if err != nil {
		log.Fatal(err)
	}
	runner = agent.NewRunner(planner, executor, tg, db, logger)

	// Messaging tools talk back through the same gateway.
	registry.Register(tools.NewNotifyTool(tg))
	registry.Register(tools.NewAskTool(tg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	go func() {
		if err := tg.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
			stop()
		}
	}()

	<-ctx.Done()

	_ = tg.Stop()
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] CORE DE-INITIALIZED. GOODBYE.\033[0m")
}
