package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/cicero/internal/app"
	"github.com/msto63/cicero/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Sprachmodelle verwalten",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Verfügbare Modelle anzeigen",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := modelDir()
		if err != nil {
			return err
		}

		fmt.Printf("%-18s %-16s %-12s %s\n", "MODELL", "GRÖSSE", "STATUS", "HINWEIS")
		for _, e := range models.Catalog {
			status := "-"
			if models.IsDownloaded(dir, e.ID) {
				status = "geladen"
			}
			fmt.Printf("%-18s %-16s %-12s %s\n",
				e.ID, models.FormatBytes(e.ApproxBytes), status, e.Hint)
		}
		return nil
	},
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download <modell>",
	Short: "Modell herunterladen und prüfen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := modelDir()
		if err != nil {
			return err
		}

		id := args[0]
		if _, ok := models.LookupEntry(id); !ok {
			return fmt.Errorf("unbekanntes Modell %q, siehe 'cicero models list'", id)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		tracker := models.NewTracker(true)
		tracker.Subscribe(func(up models.Update) {
			switch up.Status.Kind {
			case models.StatusDownloading:
				if up.TotalBytes > 0 {
					fmt.Printf("\rLade %s: %3.0f%% (%s / %s)",
						id, up.Fraction/0.6*100,
						models.FormatBytes(up.CompletedBytes),
						models.FormatBytes(up.TotalBytes))
				}
			case models.StatusCompiling:
				fmt.Printf("\nPrüfe Modell ...")
			case models.StatusReady:
				fmt.Printf("\n%s ist bereit.\n", id)
			case models.StatusError:
				fmt.Printf("\nFehler: %s\n", up.Status.Reason)
			}
		})

		// Download only; the model is loaded by the app on demand
		return models.NewDownloader(dir).Ensure(ctx, id, tracker, nil)
	},
}

var modelsDeleteCmd = &cobra.Command{
	Use:   "delete <modell>",
	Short: "Modell aus dem Cache entfernen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := modelDir()
		if err != nil {
			return err
		}

		id := args[0]
		size := models.CacheSize(dir, id)
		if size == 0 {
			fmt.Printf("%s ist nicht im Cache.\n", id)
			return nil
		}
		if err := models.Delete(dir, id); err != nil {
			return fmt.Errorf("Löschen fehlgeschlagen: %w", err)
		}
		fmt.Printf("%s entfernt (%s freigegeben).\n", id, models.FormatBytes(size))
		return nil
	},
}

func modelDir() (string, error) {
	dataDir, err := app.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "models"), nil
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDownloadCmd)
	modelsCmd.AddCommand(modelsDeleteCmd)
	rootCmd.AddCommand(modelsCmd)
}
