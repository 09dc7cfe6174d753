package cmd

import (
	"log"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database"
	"github.com/spf13/cobra"
)

// migrateCmd 执行数据库迁移后退出
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		db, err := database.NewDB(config.Get())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
