// Command chatwire is a thin terminal front end for the adapter: it streams
// one completion, lists models, or probes provider health against a YAML
// provider configuration.
//
// Usage:
//
//	chatwire chat "prompt"              # stream a completion
//	chatwire chat -provider X "prompt"  # pick a configured provider
//	chatwire models                     # list the provider's models
//	chatwire health                     # probe the provider endpoint
//	chatwire version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chatwire/chatwire/config"
	"github.com/chatwire/chatwire/llm"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		os.Exit(runChat(os.Args[2:]))
	case "models":
		os.Exit(runModels(os.Args[2:]))
	case "health":
		os.Exit(runHealth(os.Args[2:]))
	case "version":
		fmt.Printf("chatwire %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: chatwire <command> [flags]

commands:
  chat [-provider name] [-model id] "prompt"
  models [-provider name] [-refresh]
  health [-provider name]
  version

flags common to all commands:
  -config path   provider configuration file (default "chatwire.yaml")
  -debug         verbose logging`)
}

type cli struct {
	logger   *zap.Logger
	registry *llm.ProviderRegistry
	provider llm.Provider
}

// setup wires the shared pieces: logger, configuration and the selected
// provider. Exits with a message instead of returning an error because every
// command needs all three.
func setup(fs *flag.FlagSet, args []string) (*cli, []string) {
	configPath := fs.String("config", "chatwire.yaml", "provider configuration file")
	providerName := fs.String("provider", "", "provider name (default: config default)")
	debug := fs.Bool("debug", false, "verbose logging")
	fs.Parse(args)

	logger := zap.NewNop()
	if *debug {
		logger, _ = zap.NewDevelopment()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	registry, err := config.BuildRegistry(cfg, logger)
	if err != nil {
		fatal("build providers: %v", err)
	}

	var provider llm.Provider
	if *providerName != "" {
		p, ok := registry.Get(*providerName)
		if !ok {
			fatal("provider %q not configured (have: %v)", *providerName, registry.List())
		}
		provider = p
	} else {
		p, err := registry.Default()
		if err != nil {
			fatal("%v", err)
		}
		provider = p
	}
	return &cli{logger: logger, registry: registry, provider: provider}, fs.Args()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// stdoutSink prints deltas as they arrive and tool calls as one-line notices.
type stdoutSink struct{}

func (stdoutSink) Text(delta string) { fmt.Print(delta) }
func (stdoutSink) ToolCall(tc llm.ToolCall) {
	fmt.Printf("\n[tool call %s: %s %s]\n", tc.ID, tc.Name, tc.Arguments)
}

func runChat(args []string) int {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	model := fs.String("model", "", "model id (default: provider default)")
	c, rest := setup(fs, args)
	if len(rest) != 1 {
		fatal("chat needs exactly one prompt argument")
	}

	// Ctrl-C stops the stream silently, matching an editor abort.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := &llm.ChatRequest{
		Model: *model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Parts: []llm.ContentPart{llm.TextPart(rest[0])}},
		},
	}
	events, err := c.provider.Stream(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stream: %v\n", err)
		return 1
	}

	usage, err := llm.Drain(ctx, events, stdoutSink{})
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stream: %v\n", err)
		return 1
	}
	if usage != nil {
		c.logger.Debug("completed",
			zap.Int("prompt_tokens", usage.PromptTokens),
			zap.Int("completion_tokens", usage.CompletionTokens))
	}
	return 0
}

func runModels(args []string) int {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "bypass the model-list cache")
	c, _ := setup(fs, args)

	models, err := c.provider.ListModels(context.Background(), *refresh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list models: %v\n", err)
		return 1
	}
	for _, m := range models {
		caps := ""
		if m.SupportsTools {
			caps += " tools"
		}
		if m.SupportsVision {
			caps += " vision"
		}
		fmt.Printf("%-40s in=%-7d out=%-7d%s\n", m.ID, m.MaxInputTokens, m.MaxOutputTokens, caps)
	}
	return 0
}

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	c, _ := setup(fs, args)

	status, err := c.provider.HealthCheck(context.Background())
	if status != nil {
		fmt.Printf("%s: healthy=%v latency=%s\n", c.provider.Name(), status.Healthy, status.Latency)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
