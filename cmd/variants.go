package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/internal/app"
	"github.com/anoixa/media-library/utils"
	"github.com/spf13/cobra"
)

// consoleSink 把批量生成进度打到标准日志
type consoleSink struct{}

func (consoleSink) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// variantsCmd 批量补全所有媒体的响应式变体
var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "Generate missing responsive variants for all media",
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		container := app.NewContainer(config.Get())
		if err := container.Init(); err != nil {
			log.Fatalf("Failed to initialize application: %v", err)
		}
		defer container.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Ctrl-C 在两个媒体之间停止
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		utils.SafeGo(func() {
			<-quit
			cancel()
		})

		summary, err := container.Generator.EnsureAll(ctx, consoleSink{})
		if err != nil {
			log.Printf("Batch aborted: %v", err)
		}
		log.Printf("Done: %d generated, %d up to date, %d skipped, %d missing originals, %d failed",
			summary.Generated, summary.UpToDate, summary.Skipped, summary.Missing, summary.Failed)
	},
}

func init() {
	rootCmd.AddCommand(variantsCmd)
}
