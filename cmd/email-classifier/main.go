package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/penta/email-classifier/internal/config"
	"github.com/penta/email-classifier/internal/core"
	"github.com/penta/email-classifier/internal/di"
	"github.com/penta/email-classifier/internal/mailparse"
	"github.com/penta/email-classifier/internal/tools"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build container: %v\n", err)
		os.Exit(1)
	}

	err = container.Invoke(func(
		service *core.ClassifierService,
		llmClient core.LLMClient,
		registry *tools.Registry,
		cfg *config.Config,
		logger *zap.Logger,
	) error {
		defer logger.Sync()
		defer func() {
			if closer, ok := llmClient.(interface{ Close() error }); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close LLM client", zap.Error(err))
				}
			}
		}()
		return run(flags, service, registry, cfg, logger)
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, service *core.ClassifierService, registry *tools.Registry, cfg *config.Config, logger *zap.Logger) error {
	email, err := readEmail(flags, logger)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Sender)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	ctx := context.Background()

	// Feedback mode records a correction instead of classifying
	if flags.FeedbackOriginal != "" || flags.FeedbackCorrect != "" {
		if err := recordFeedback(ctx, flags, service, email); err != nil {
			return err
		}
	} else {
		if err := classify(ctx, flags, service, email, cfg); err != nil {
			return err
		}
	}

	if flags.ShowStats {
		stats, err := service.Stats(ctx, cfg.GetString("llm.provider"), registry.Count())
		if err != nil {
			return fmt.Errorf("failed to collect stats: %w", err)
		}
		printStats(stats)
	}
	return nil
}

func classify(ctx context.Context, flags *di.CLIFlags, service *core.ClassifierService, email *core.Email, cfg *config.Config) error {
	fmt.Printf("\n=== Classification ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetString("llm.provider"))
	fmt.Printf("Confidence threshold: %.2f\n", cfg.GetFloat64("classifier.confidence_threshold"))

	startTime := time.Now()
	result, err := service.Classify(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to classify email: %w", err)
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Category: %s\n", result.PrimaryCategory)
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	if len(result.SecondaryCategories) > 0 {
		secondary := make([]string, len(result.SecondaryCategories))
		for i, c := range result.SecondaryCategories {
			secondary[i] = string(c)
		}
		fmt.Printf("Secondary categories: %s\n", strings.Join(secondary, ", "))
	}
	fmt.Printf("Priority: %s\n", result.Priority)
	fmt.Printf("Needs review: %t\n", result.NeedsReview)
	fmt.Printf("Reasoning: %s\n", result.Reasoning)
	if result.RecommendedAction != "" {
		fmt.Printf("Recommended action: %s\n", result.RecommendedAction)
	}
	if len(result.ExtractedEntities) > 0 {
		fmt.Printf("Extracted entities:\n")
		for k, v := range result.ExtractedEntities {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}
	fmt.Printf("Model used: %s\n", result.ModelUsed)
	fmt.Printf("Processing time: %v\n", duration)
	return nil
}

func recordFeedback(ctx context.Context, flags *di.CLIFlags, service *core.ClassifierService, email *core.Email) error {
	original, err := core.ParseCategory(flags.FeedbackOriginal)
	if err != nil {
		return fmt.Errorf("invalid -feedback-original: %w", err)
	}
	correct, err := core.ParseCategory(flags.FeedbackCorrect)
	if err != nil {
		return fmt.Errorf("invalid -feedback-correct: %w", err)
	}

	if err := service.ProvideFeedback(ctx, email, original, correct, 1.0, flags.FeedbackNotes); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	fmt.Printf("\n=== Feedback ===\n")
	fmt.Printf("Email ID: %s\n", email.ID())
	fmt.Printf("Original category: %s\n", original)
	fmt.Printf("Correct category: %s\n", correct)
	fmt.Printf("Recorded to: %s\n", flags.FeedbackLogPath)
	return nil
}

func printStats(stats *core.Stats) {
	fmt.Printf("\n=== Stats ===\n")
	fmt.Printf("Provider: %s\n", stats.Provider)
	fmt.Printf("Model: %s\n", stats.Model)
	fmt.Printf("Products: %d\n", stats.TotalProducts)
	fmt.Printf("Common queries: %d\n", stats.TotalQueries)
	fmt.Printf("History records: %d\n", stats.TotalHistory)
	fmt.Printf("Tools registered: %d\n", stats.ToolsRegistered)
	fmt.Printf("Learning enabled: %t\n", stats.LearningEnabled)
}

// readEmail parses an RFC 5322 message from the input file or stdin
func readEmail(flags *di.CLIFlags, logger *zap.Logger) (*core.Email, error) {
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %q: %w", flags.InputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := mailparse.ExtractText(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract email body: %w", err)
	}

	receivedAt := time.Now()
	if date, err := msg.Header.Date(); err == nil {
		receivedAt = date
	}

	email := &core.Email{
		Subject:    msg.Header.Get("Subject"),
		Body:       body,
		Sender:     msg.Header.Get("From"),
		ReceivedAt: receivedAt,
		Metadata:   map[string]any{},
	}
	for _, k := range []string{"To", "Cc", "Message-Id", "Reply-To"} {
		if v := msg.Header.Get(k); v != "" {
			email.Metadata[strings.ToLower(k)] = v
		}
	}
	return email, nil
}
