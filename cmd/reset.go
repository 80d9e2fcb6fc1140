package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VictorPerezCardoso/cotes/internal/store"
	"github.com/VictorPerezCardoso/cotes/internal/user"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a user's study history and any saved quiz",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("user")
		all, _ := cmd.Flags().GetBool("all")
		force, _ := cmd.Flags().GetBool("force")

		if name == "" && !all {
			return fmt.Errorf("--user or --all is required")
		}
		if name != "" && all {
			return fmt.Errorf("--user and --all are mutually exclusive")
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

		if all {
			if !force && !confirm("Delete ALL users, histories and quiz progress?") {
				fmt.Println("Aborted.")
				return nil
			}
			if err := s.Wipe(ctx); err != nil {
				return fmt.Errorf("wipe store: %w", err)
			}
			fmt.Println("Store wiped.")
			return nil
		}

		registry, err := user.Load(ctx, s.Users())
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		u, ok := registry.FindByName(name)
		if !ok {
			return fmt.Errorf("no user named %q", name)
		}

		if !force && !confirm(fmt.Sprintf("Delete all history and quiz progress for %s?", u.Name)) {
			fmt.Println("Aborted.")
			return nil
		}

		if err := s.History().Reset(ctx, u.ID); err != nil {
			return fmt.Errorf("reset history: %w", err)
		}
		if err := s.Progress().Clear(ctx, u.ID); err != nil {
			return fmt.Errorf("clear quiz progress: %w", err)
		}

		fmt.Printf("Cleared history and quiz progress for %s.\n", u.Name)
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
}

func init() {
	resetCmd.Flags().StringP("user", "u", "", "User name")
	resetCmd.Flags().Bool("all", false, "Wipe every user, history and saved quiz")
	resetCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
