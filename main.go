package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callbridge/bridge"
	"callbridge/core"
	"callbridge/placement"
	"callbridge/services/openai/llm"
	"callbridge/services/openai/stt"
	"callbridge/ui"

	"github.com/joho/godotenv"
)

func main() {
	var toNumber string
	var request string
	flag.StringVar(&toNumber, "to", "", "destination number in E.164 format")
	flag.StringVar(&request, "request", "healthcare eligibility verification", "what the call is about")
	flag.Parse()

	logger := core.GetLogger()

	if err := godotenv.Load(".env.local"); err != nil {
		logger.With(map[string]interface{}{"error": err}).Warn("No .env.local file found or failed to load")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Fatal("OPENAI_API_KEY is required")
	}
	gatewayURL := os.Getenv("CALL_GATEWAY_URL")
	if gatewayURL == "" {
		logger.Fatal("CALL_GATEWAY_URL is required")
	}
	gatewayKey := os.Getenv("CALL_GATEWAY_API_KEY")

	if toNumber == "" {
		logger.Fatal("-to number is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sink bridge.Sink
	if sinkURL := os.Getenv("UI_WS_URL"); sinkURL != "" {
		pub := ui.NewPublisher(ui.PublisherConfig{
			ConnectURL: sinkURL,
			MinDelay:   20 * time.Millisecond,
			MaxDelay:   60 * time.Millisecond,
		})
		if err := pub.Connect(ctx); err != nil {
			logger.Warn("presentation sink unavailable, continuing without it", "error", err)
		} else {
			defer pub.Close()
			pub.Say("Bridge", "Call bridge online")
			sink = pub
		}
	}

	b := bridge.New(
		bridge.DefaultConfig(),
		placement.NewClient(gatewayKey, gatewayURL),
		stt.NewWhisperService(stt.DefaultConfig(apiKey)),
		llm.New(llm.DefaultConfig(apiKey)),
		sink,
	)

	sessionID, err := b.StartCall(ctx, toNumber, request)
	if err != nil {
		logger.Fatalf("failed to start call: %v", err)
	}
	logger.Info("call placed", "session_id", sessionID, "to_number", toNumber)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down...")
	b.Shutdown("conversation finished")
	time.Sleep(2 * time.Second)
}
