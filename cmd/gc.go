package cmd

import (
	"context"
	"log"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/internal/app"
	"github.com/spf13/cobra"
)

var gcDryRun bool

// gcCmd 清理存储中不再被引用的文件
var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete stored files no longer referenced by any media record",
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		container := app.NewContainer(config.Get())
		if err := container.Init(); err != nil {
			log.Fatalf("Failed to initialize application: %v", err)
		}
		defer container.Close()

		removed, err := container.GC.Sweep(context.Background(), gcDryRun)
		if err != nil {
			log.Fatalf("GC failed: %v", err)
		}

		for _, filename := range removed {
			if gcDryRun {
				log.Printf("orphan: %s", filename)
			} else {
				log.Printf("deleted: %s", filename)
			}
		}
		log.Printf("GC finished: %d orphan files", len(removed))
	},
}

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "report orphan files without deleting them")
	rootCmd.AddCommand(gcCmd)
}
