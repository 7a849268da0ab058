package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codesweep",
	Short: "CodeSweep - Agregador de análise estática multi-engine",
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
