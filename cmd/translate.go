package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chunkslate/internal/model/translation"
	svc "chunkslate/internal/service/translation"
)

var translateOpts struct {
	input       string
	output      string
	target      string
	concurrency int
	summary     bool
	persist     bool
}

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a text file chunk by chunk",
	Long: `Segment the input, optionally summarize it for context, translate every chunk
concurrently and write the joined translation. Usage and estimated cost are logged
when the run finishes.`,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	flags := translateCmd.Flags()
	flags.StringVarP(&translateOpts.input, "input", "i", "-", "input file (- for stdin)")
	flags.StringVarP(&translateOpts.output, "output", "o", "-", "output file (- for stdout)")
	flags.StringVarP(&translateOpts.target, "target", "t", "", "target language (default: translate.target_lang)")
	flags.IntVar(&translateOpts.concurrency, "concurrency", 0, "parallel requests 1-8 (default: translate.concurrency)")
	flags.BoolVar(&translateOpts.summary, "summary", false, "generate a summary first and pass it as context")
	flags.BoolVar(&translateOpts.persist, "persist", false, "use the configured store for settings and draft")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := readInput(translateOpts.input)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, translateOpts.persist)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		a.close(closeCtx)
	}()

	session := a.session
	if translateOpts.target != "" || translateOpts.concurrency > 0 {
		settings := session.Settings()
		if translateOpts.target != "" {
			settings.TargetLang = translateOpts.target
		}
		if translateOpts.concurrency > 0 {
			settings.Concurrency = translateOpts.concurrency
		}
		if _, err := session.UpdateSettings(ctx, settings); err != nil {
			return err
		}
	}

	session.SetSource(source)
	chunks, err := session.Segment()
	if err != nil {
		return err
	}
	current := session.Settings()
	log.Info().Int("chunks", len(chunks)).Str("target", current.TargetLanguage()).Msg("source segmented")

	if translateOpts.summary {
		state, err := session.GenerateSummary(ctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		log.Info().Int("bullets", countLines(state.Text)).Msg("summary generated")
	}

	events, unsubscribe := a.hub.Subscribe()
	defer unsubscribe()

	if err := session.StartBulk(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	idle := make(chan struct{})
	g.Go(func() error {
		defer close(idle)
		return session.WaitIdle(gctx)
	})
	g.Go(func() error {
		reportProgress(gctx, events, idle, len(chunks))
		return nil
	})
	if err := g.Wait(); err != nil {
		session.CancelAll()
		if errors.Is(err, context.Canceled) {
			return errors.New("translation interrupted")
		}
		return err
	}

	for _, chunk := range session.Chunks() {
		if chunk.Status == translation.StatusError {
			log.Warn().Str("chunk_id", chunk.ID).Str("error", chunk.Error).Msg("chunk failed")
		}
	}

	text, missing, err := session.Export()
	if err != nil {
		return err
	}
	if missing > 0 {
		log.Warn().Int("missing", missing).Msg("some chunks have no translation")
	}
	if err := writeOutput(translateOpts.output, text); err != nil {
		return err
	}

	report := session.UsageReport()
	log.Info().
		Str("summary", report.SummaryLine).
		Str("translate", report.TranslateLine).
		Str("summary_cost", report.SummaryCost).
		Str("translate_cost", report.TranslateCost).
		Str("total_cost", report.TotalCost).
		Msg("usage")
	return nil
}

// reportProgress 记录块完成进度，直到 idle 关闭或 ctx 取消
func reportProgress(ctx context.Context, events <-chan svc.Event, idle <-chan struct{}, total int) {
	finished := make(map[string]bool, total)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type != svc.EventChunk || e.Chunk == nil {
				continue
			}
			switch e.Chunk.Status {
			case translation.StatusDone, translation.StatusError:
				if !finished[e.Chunk.ID] {
					finished[e.Chunk.ID] = true
					log.Debug().Str("chunk_id", e.Chunk.ID).Str("status", e.Chunk.Status.String()).
						Int("finished", len(finished)).Int("total", total).Msg("chunk finished")
				}
			}
		case <-ticker.C:
			log.Info().Int("finished", len(finished)).Int("total", total).Msg("translating")
		case <-idle:
			return
		case <-ctx.Done():
			return
		}
	}
}

// countLines 非空行数
func countLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
