package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbchen/factwatch/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("factwatch %s\n", common.GetFullVersion())
	},
}
