package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msto63/cicero/internal/app"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cicero",
	Short: "Cicero - Sprachdiktat am Cursor",
	Long: `Cicero diktiert Text direkt an den Cursor: Taste halten,
sprechen, loslassen. Die Aufnahme wird lokal transkribiert, optional
von einem Sprachmodell überarbeitet und an der Cursorposition
eingefügt.

Befehle:
  run        - Diktat-Anwendung starten (Tray oder Terminal)
  models     - Sprachmodelle verwalten
  devices    - Eingabegeräte anzeigen
  history    - Eingabeverlauf und Statistik
  dictionary - Persönliches Wörterbuch verwalten`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Fehler: %s: %v\n", msg, err)
}

// loadConfig reads the configuration, honoring the verbose flag
func loadConfig() (app.Config, error) {
	dir, err := app.ConfigDir()
	if err != nil {
		return app.Config{}, err
	}
	cfg, err := app.LoadConfig(dir)
	if err != nil {
		return app.Config{}, err
	}
	if verbose {
		cfg.General.LogLevel = "debug"
	}
	return cfg, nil
}
