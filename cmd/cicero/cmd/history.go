package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/cicero/internal/app"
	"github.com/msto63/cicero/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Eingabeverlauf und Statistik",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Letzte Eingaben anzeigen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store) error {
			records, err := store.Recent(ctx, historyLimit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("Noch keine Eingaben.")
				return nil
			}
			for _, r := range records {
				text := r.ProcessedText
				if text == "" {
					text = r.RawText
				}
				fmt.Printf("%s  %s  %s\n",
					r.ID, r.Date.Local().Format("2006-01-02 15:04"), oneLine(text))
			}
			return nil
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Statistik anzeigen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store) error {
			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Eingaben gesamt:    %d\n", stats.TotalInputs)
			fmt.Printf("Eingaben heute:     %d (%d Zeichen)\n", stats.TodayInputs, stats.TodayChars)
			fmt.Printf("Zeichen diktiert:   %d\n", stats.TotalRawChars)
			fmt.Printf("Zeichen eingefügt:  %d\n", stats.TotalProcessedChars)
			fmt.Printf("Zeichen gespart:    %d (%.0f%%)\n", stats.CharsSaved, stats.EfficiencyRatio()*100)
			fmt.Printf("Serie:              %d Tage\n", stats.StreakDays)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Einzelnen Eintrag löschen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store) error {
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Eintrag gelöscht.")
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Gesamten Verlauf löschen",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(ctx context.Context, store *history.Store) error {
			if err := store.Clear(ctx); err != nil {
				return err
			}
			fmt.Println("Verlauf gelöscht.")
			return nil
		})
	},
}

// withHistory opens the store, runs fn and closes again
func withHistory(fn func(context.Context, *history.Store) error) error {
	dataDir, err := app.DataDir()
	if err != nil {
		return err
	}
	store, err := history.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("Verlauf nicht verfügbar: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), store)
}

// oneLine flattens a record text for list output
func oneLine(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return text
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Anzahl der Einträge")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
