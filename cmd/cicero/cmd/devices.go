package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/cicero/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Verfügbare Eingabegeräte anzeigen",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audio.ListInputDevices()
		if err != nil {
			return fmt.Errorf("Geräteliste nicht verfügbar: %w", err)
		}
		if len(devices) == 0 {
			fmt.Println("Keine Eingabegeräte gefunden.")
			return nil
		}

		for _, dev := range devices {
			marker := " "
			if dev.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s %-40s %d Kanäle, %.0f Hz\n",
				marker, dev.Name, dev.MaxInputChannels, dev.DefaultSampleRate)
		}
		fmt.Println("\n* = Standardgerät")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
