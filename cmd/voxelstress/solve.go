package main

import (
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve [scene.json]",
	Short: "Solve every structure of a scene file and print the stress report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tune, err := loadTuning()
		if err != nil {
			return err
		}
		w, err := loadScene(tune, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), w.Report())
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
}
