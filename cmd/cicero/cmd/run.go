package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/msto63/cicero/internal/app"
	"github.com/msto63/cicero/internal/tui"
	"github.com/msto63/cicero/internal/ui"
)

var (
	useTUI      bool
	runModel    string
	runLanguage string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Diktat-Anwendung starten",
	Long: `Startet Cicero. Standardmäßig läuft die Anwendung im System-Tray
und reagiert auf den konfigurierten Hotkey. Mit --tui startet stattdessen
eine Terminal-Oberfläche, in der die Leertaste das Diktat umschaltet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printError("Konfiguration laden", err)
			return err
		}

		// Flags override the settings file only when set explicitly
		if cmd.Flags().Changed("model") {
			cfg.Speech.Model = runModel
		}
		if cmd.Flags().Changed("language") {
			cfg.General.Language = runLanguage
		}

		a, err := app.New(cfg)
		if err != nil {
			printError("Initialisierung", err)
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Model preparation runs in the background so the UI is
		// responsive immediately
		go func() {
			if err := a.WarmUp(ctx); err != nil {
				printError("Modellvorbereitung", err)
			}
		}()

		go a.Run(ctx)

		if useTUI {
			return runTUI(ctx, cancel, a)
		}
		return runTray(ctx, cancel, a, cfg)
	},
}

func runTUI(ctx context.Context, cancel context.CancelFunc, a *app.App) error {
	model := tui.NewModel(a.States(), a.ModelUpdates(), tui.Callbacks{
		OnToggle: a.Toggle,
		OnCancel: a.Orchestrator().Cancel,
		OnQuit:   cancel,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	cancel()
	return err
}

func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, cfg app.Config) error {
	tray := ui.NewTray(ui.TrayCallbacks{
		OnToggle: a.Toggle,
		OnCancel: a.Orchestrator().Cancel,
		OnQuit:   cancel,
	}, cfg.Speech.Model, cfg.Activation.Shortcut)

	go func() {
		for st := range a.States() {
			tray.Apply(st)
		}
	}()
	go func() {
		<-ctx.Done()
		tray.Quit()
	}()

	// Blocks until Quit; must stay on the main thread on macOS
	tray.Run()
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "Terminal-Oberfläche statt System-Tray")
	runCmd.Flags().StringVar(&runModel, "model", "", "Sprachmodell für diese Sitzung")
	runCmd.Flags().StringVar(&runLanguage, "language", "", "Eingabesprache (zh, en, de)")
	rootCmd.AddCommand(runCmd)
}
