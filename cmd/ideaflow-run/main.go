// Command ideaflow-run drives one Run of the ideaflow pipeline from the
// command line, wiring the concrete collaborators (model provider, cache,
// progress sink) the core package only depends on as interfaces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/madspark-go/ideaflow/ai"
	"github.com/madspark-go/ideaflow/ai/bedrockprovider"
	"github.com/madspark-go/ideaflow/ai/httpprovider"
	"github.com/madspark-go/ideaflow/cache"
	"github.com/madspark-go/ideaflow/ideaflow"
	"github.com/madspark-go/ideaflow/internal/config"
	"github.com/madspark-go/ideaflow/internal/corelog"
	"github.com/madspark-go/ideaflow/progress"
)

func main() {
	topic := flag.String("topic", "", "the idea-generation topic (required)")
	background := flag.String("context", "", "background/constraints context")
	configPath := flag.String("config", "", "optional YAML config file overriding defaults and environment")
	numTop := flag.Int("num-top", 0, "override the number of top candidates (0 = use config default)")
	enhancedReasoning := flag.Bool("enhanced-reasoning", true, "enable multi-dimensional scoring and logical inference")
	flag.Parse()

	if err := run(*topic, *background, *configPath, *numTop, *enhancedReasoning); err != nil {
		fmt.Fprintln(os.Stderr, "ideaflow-run:", err)
		os.Exit(1)
	}
}

// setupTracing registers a minimal always-sampling TracerProvider so spans
// emitted by internal/tracing are actually recorded rather than silently
// discarded by the otel no-op default. No exporter is attached; a
// deployment wiring a real backend would add a span processor here.
func setupTracing() func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

func run(topic, background, configPath string, numTop int, enhancedReasoning bool) error {
	if topic == "" {
		return fmt.Errorf("-topic is required")
	}

	shutdownTracing := setupTracing()
	defer shutdownTracing(context.Background())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.ApplyYAMLFile(data); err != nil {
			return err
		}
	}

	logger := corelog.NewJSONLogger(os.Stderr)

	provider, err := buildProvider(cfg)
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}

	memCache := cache.NewMemoryCache(256, time.Minute)
	defer memCache.Close()

	sink := progress.NewChannelSink(32)
	events := sink.Subscribe()
	go func() {
		for evt := range events {
			logger.Info("progress", corelog.Fields{"message": evt.Message, "fraction": evt.Fraction})
		}
	}()

	orch := ideaflow.NewOrchestrator(provider, memCache, sink, logger)

	opts := ideaflow.DefaultWorkflowOptions()
	opts.NumTopCandidates = cfg.WorkflowOpts.NumTopCandidates
	opts.Timeout = cfg.WorkflowOpts.Timeout
	opts.MaxConcurrentAgents = cfg.WorkflowOpts.MaxConcurrentAgents
	opts.MultiDimensional = enhancedReasoning
	opts.LogicalInference = enhancedReasoning
	if numTop > 0 {
		opts.NumTopCandidates = numTop
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout+30*time.Second)
	defer cancel()

	results, err := orch.Run(ctx, topic, background, opts)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	for i, r := range results {
		fmt.Printf("#%d (score %.1f -> %.1f): %s\n", i+1, r.InitialScore, r.ImprovedScore, r.ImprovedIdea)
	}
	return nil
}

func buildProvider(cfg *config.Config) (ai.ModelProvider, error) {
	switch cfg.Provider {
	case "bedrock":
		return bedrockprovider.New(context.Background(), cfg.AWSRegion, cfg.ProviderModel)
	case "http", "":
		return httpprovider.New(cfg.ProviderURL, cfg.ProviderAPIKey, cfg.ProviderModel), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
