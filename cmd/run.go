package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VictorPerezCardoso/cotes/internal/ai"
	"github.com/VictorPerezCardoso/cotes/internal/app"
	"github.com/VictorPerezCardoso/cotes/internal/llm"
	"github.com/VictorPerezCardoso/cotes/internal/store"
	"github.com/VictorPerezCardoso/cotes/internal/study"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider, perr := llm.NewProviderFromEnv(ctx, st.LLMEvents())
	if perr != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", perr)
		fmt.Fprintln(os.Stderr, "Resource suggestions and quizzes will be unavailable.")
		provider = llm.Unavailable{Reason: perr}
	}

	tracker, err := study.New(ctx, st, ai.New(provider, ai.DefaultConfig()))
	if err != nil {
		return err
	}

	return app.Run(app.Options{Tracker: tracker})
}
