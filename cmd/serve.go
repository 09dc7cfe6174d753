package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/media-library/api/core"
	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/internal/app"
	"github.com/anoixa/media-library/internal/worker"
	"github.com/anoixa/media-library/utils"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer container.Close()

	// 后台变体生成队列
	worker.InitGlobalPool(cfg.GetWorkerCount(), cfg.WorkerQueueDepth)
	defer worker.StopGlobalPool()

	deps := &core.ServerDependencies{
		DB:             container.DB,
		Cache:          container.Cache,
		StorageFactory: container.StorageFactory,
		Store:          container.Store,
		MediaRepo:      container.MediaRepo,
		DirectoryRepo:  container.DirectoryRepo,
		MediaService:   container.Media,
		Tree:           container.Tree,
		Presenter:      container.Presenter,
	}

	server, cleanup := core.StartServer(deps)
	defer cleanup()

	utils.SafeGo(func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	})

	// 处理退出 signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
