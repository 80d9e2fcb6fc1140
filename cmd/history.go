package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/VictorPerezCardoso/cotes/internal/history"
	"github.com/VictorPerezCardoso/cotes/internal/store"
	"github.com/VictorPerezCardoso/cotes/internal/user"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print a user's study history without starting the TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("user")
		topic, _ := cmd.Flags().GetString("topic")
		days, _ := cmd.Flags().GetInt("days")

		if name == "" {
			return fmt.Errorf("--user is required")
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := context.Background()
		registry, err := user.Load(ctx, s.Users())
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		u, ok := registry.FindByName(name)
		if !ok {
			return fmt.Errorf("no user named %q", name)
		}

		ledger, err := history.Load(ctx, s.History(), u.ID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		sessions := ledger.FilterByRecency(time.Now(), days)
		if topic != "" {
			filtered := sessions[:0]
			lower := strings.ToLower(topic)
			for _, sess := range sessions {
				if strings.Contains(strings.ToLower(sess.Topic), lower) {
					filtered = append(filtered, sess)
				}
			}
			sessions = filtered
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}

		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].StartTime.After(sessions[j].StartTime)
		})

		fmt.Printf("%-12s  %-30s  %8s  %7s\n", "Date", "Topic", "Minutes", "Quiz")
		fmt.Println(strings.Repeat("─", 64))
		for _, sess := range sessions {
			score := "-"
			if sess.QuizResult != nil {
				score = fmt.Sprintf("%d/%d", sess.QuizResult.Score, sess.QuizResult.TotalQuestions)
			}
			fmt.Printf("%-12s  %-30s  %8d  %7s\n",
				sess.StartTime.Format("2006-01-02"),
				clip(sess.Topic, 30),
				sess.DurationMinutes,
				score)
		}

		fmt.Println(strings.Repeat("─", 64))
		for _, tm := range history.MinutesByTopic(sessions) {
			fmt.Printf("%-44s  %8d min\n", clip(tm.Topic, 44), tm.Minutes)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringP("user", "u", "", "User name (required)")
	historyCmd.Flags().StringP("topic", "t", "", "Filter by topic substring")
	historyCmd.Flags().IntP("days", "d", 0, "Only sessions from the last N days (0 = all)")
}
