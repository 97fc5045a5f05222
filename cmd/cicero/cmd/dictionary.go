package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/cicero/internal/app"
	"github.com/msto63/cicero/internal/textproc"
)

var dictionaryCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "Persönliches Wörterbuch verwalten",
	Long: `Das Wörterbuch ersetzt Begriffe im transkribierten Text,
zum Beispiel Fachwörter oder Eigennamen, die das Sprachmodell
falsch schreibt. Edit-Regeln sind freie Anweisungen an die
Nachbearbeitung.`,
}

var dictionaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Einträge und Regeln anzeigen",
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := openDictionary()
		if err != nil {
			return err
		}

		entries := dict.Entries()
		rules := dict.Rules()
		if len(entries) == 0 && len(rules) == 0 {
			fmt.Println("Wörterbuch ist leer.")
			return nil
		}

		if len(entries) > 0 {
			fmt.Println("Ersetzungen:")
			for _, e := range entries {
				state := " "
				if !e.Enabled {
					state = "(aus)"
				}
				fmt.Printf("  %s  %q -> %q %s\n", e.ID, e.Original, e.Replacement, state)
			}
		}
		if len(rules) > 0 {
			fmt.Println("Regeln:")
			for _, r := range rules {
				state := " "
				if !r.Enabled {
					state = "(aus)"
				}
				fmt.Printf("  %s  %s %s\n", r.ID, r.Description, state)
			}
		}
		return nil
	},
}

var dictionaryAddCmd = &cobra.Command{
	Use:   "add <original> <ersetzung>",
	Short: "Ersetzung hinzufügen",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := openDictionary()
		if err != nil {
			return err
		}
		if err := dict.AddEntry(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Ersetzung %q -> %q gespeichert.\n", args[0], args[1])
		return nil
	},
}

var dictionaryRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Ersetzung entfernen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := openDictionary()
		if err != nil {
			return err
		}
		if err := dict.RemoveEntry(args[0]); err != nil {
			return err
		}
		fmt.Println("Eintrag entfernt.")
		return nil
	},
}

var dictionaryRuleAddCmd = &cobra.Command{
	Use:   "rule-add <beschreibung>",
	Short: "Edit-Regel hinzufügen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := openDictionary()
		if err != nil {
			return err
		}
		if err := dict.AddRule(args[0]); err != nil {
			return err
		}
		fmt.Println("Regel gespeichert.")
		return nil
	},
}

var dictionaryRuleRemoveCmd = &cobra.Command{
	Use:   "rule-remove <id>",
	Short: "Edit-Regel entfernen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dict, err := openDictionary()
		if err != nil {
			return err
		}
		if err := dict.RemoveRule(args[0]); err != nil {
			return err
		}
		fmt.Println("Regel entfernt.")
		return nil
	},
}

func openDictionary() (*textproc.Dictionary, error) {
	configDir, err := app.ConfigDir()
	if err != nil {
		return nil, err
	}
	dict, err := textproc.LoadDictionary(configDir)
	if err != nil {
		return nil, fmt.Errorf("Wörterbuch nicht verfügbar: %w", err)
	}
	return dict, nil
}

func init() {
	dictionaryCmd.AddCommand(dictionaryListCmd)
	dictionaryCmd.AddCommand(dictionaryAddCmd)
	dictionaryCmd.AddCommand(dictionaryRemoveCmd)
	dictionaryCmd.AddCommand(dictionaryRuleAddCmd)
	dictionaryCmd.AddCommand(dictionaryRuleRemoveCmd)
	rootCmd.AddCommand(dictionaryCmd)
}
