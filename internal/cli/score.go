package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/resolveiq/internal/config"
	"github.com/spec-kit/resolveiq/internal/embedding"
	"github.com/spec-kit/resolveiq/internal/persistence"
	"github.com/spec-kit/resolveiq/internal/scoring"
)

type textFlags struct {
	title       string
	description string
}

func (f *textFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "ticket title")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "ticket description")
}

func (a *app) quickScoreCommand() *cobra.Command {
	var (
		text   textFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "quick-score",
		Short: "Score text with the keyword heuristic",
		Long: `Score ticket text with the keyword heuristic used at intake.

No embedding backend or database is needed. Empty text scores the baseline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := scoring.QuickScore(text.title, text.description)
			if asJSON {
				return a.printJSON(res)
			}
			out := a.opts.Out
			fmt.Fprintf(out, "score:       %d\n", res.Score)
			fmt.Fprintf(out, "priority:    %s\n", res.Priority)
			fmt.Fprintf(out, "breach risk: %.2f\n", res.BreachRisk)
			fmt.Fprintf(out, "escalate:    %t\n", res.EscalationRequired)
			for _, r := range res.Reasons {
				fmt.Fprintf(out, "  - %s\n", r)
			}
			return nil
		},
	}
	text.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

type historyEntry struct {
	ID       string `yaml:"id"`
	Text     string `yaml:"text"`
	Breached bool   `yaml:"breached"`
}

func (a *app) analyzeTextCommand() *cobra.Command {
	var (
		text        textFlags
		historyPath string
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "analyze-text",
		Short: "Run the full analysis against a history file",
		Long: `Run the full analysis (category, keywords, similarity, fusion) on free text.

--history points at a YAML or JSON list of {id, text, breached} entries. The
embedding endpoint is read from EMBEDDING_* variables, with Redis caching when
REDIS_ADDR is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := loadHistory(historyPath)
			if err != nil {
				return err
			}
			embedder, cleanup, err := a.embedder()
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := scoring.NewAnalyzer(embedder, timeout).Analyze(cmd.Context(), text.title, text.description, history)
			if errors.Is(err, embedding.ErrUnavailable) {
				return fmt.Errorf("embedding backend unavailable; try quick-score: %w", err)
			}
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
	text.bind(cmd)
	cmd.Flags().StringVar(&historyPath, "history", "", "history file (YAML or JSON)")
	cmd.Flags().DurationVar(&timeout, "timeout", scoring.DefaultEmbedTimeout, "embedding call timeout")
	return cmd
}

func (a *app) embedder() (embedding.Embedder, func(), error) {
	if a.opts.Embedder != nil {
		return a.opts.Embedder, func() {}, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := a.logger(cfg.Logger)
	redis := persistence.NewRedis(cfg.Redis, logger)
	return embedding.FromConfig(cfg.Embedding, redis.Client, logger), redis.Close, nil
}

func loadHistory(path string) ([]scoring.HistoricalTicket, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var entries []historyEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	out := make([]scoring.HistoricalTicket, 0, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("history-%d", i)
		}
		out = append(out, scoring.HistoricalTicket{ID: id, Text: e.Text, Breached: e.Breached})
	}
	return out, nil
}
