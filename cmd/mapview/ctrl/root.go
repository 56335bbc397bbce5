package ctrl

import (
	"github.com/openziti/mapview/cmd/mapview/mapview"
	"github.com/spf13/cobra"
)

func init() {
	mapview.RootCmd.AddCommand(ctrlCmd)
}

var ctrlCmd = &cobra.Command{
	Use:   "ctrl",
	Short: "Control running metrics instruments",
}
