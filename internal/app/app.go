// Package app 依赖注入容器，负责组件的构建顺序与生命周期
package app

import (
	"fmt"
	"time"

	"github.com/anoixa/media-library/cache"
	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database"
	"github.com/anoixa/media-library/database/repo/directories"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/imaging"
	mediasvc "github.com/anoixa/media-library/internal/media"
	"github.com/anoixa/media-library/internal/mediatree"
	"github.com/anoixa/media-library/internal/presenter"
	"github.com/anoixa/media-library/internal/variants"
	"github.com/anoixa/media-library/storage"
	"github.com/anoixa/media-library/utils"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config

	DB             *gorm.DB
	Cache          cache.Cache
	StorageFactory *storage.Factory
	Store          *storage.ContentStore

	MediaRepo     mediarepo.Repository
	DirectoryRepo *directories.Repository

	Codec     imaging.Codec
	Generator *variants.Generator
	Tree      *mediatree.Tree
	Presenter *presenter.Presenter
	Media     *mediasvc.Service
	GC        *mediasvc.GarbageCollector
}

// NewContainer 创建容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{Config: cfg}
}

// Init 按依赖顺序初始化所有组件
func (c *Container) Init() error {
	if err := c.initDatabase(); err != nil {
		return err
	}
	if err := c.initStorage(); err != nil {
		return err
	}
	c.initServices()
	return nil
}

func (c *Container) initDatabase() error {
	db, err := database.NewDB(c.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	c.DB = db

	provider, err := cache.New(c.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.Cache = provider

	ttl := time.Duration(c.Config.CacheTTL) * time.Second
	c.MediaRepo = mediarepo.NewCachedRepository(mediarepo.NewRepository(db), provider, ttl)
	c.DirectoryRepo = directories.NewRepository(db)

	utils.LogIfDevf("Database and repositories initialized")
	return nil
}

func (c *Container) initStorage() error {
	factory, err := storage.NewFactory(c.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.StorageFactory = factory
	c.Store = storage.NewContentStore(factory.GetDefault(), c.Config.StorageWebDir)
	return nil
}

func (c *Container) initServices() {
	c.Codec = imaging.NewVipsCodec()
	c.Generator = variants.NewGenerator(c.MediaRepo, c.Store, c.Codec, variants.OptionsFromConfig(c.Config)).
		WithConcurrencyLimit(c.Config.VipsConcurrency)
	c.Tree = mediatree.New(c.MediaRepo, c.DirectoryRepo)
	c.Presenter = presenter.New(c.Store, c.Config)
	c.Media = mediasvc.NewService(c.MediaRepo, c.DirectoryRepo, c.Store, c.Generator, c.Codec, c.Config)
	c.GC = mediasvc.NewGarbageCollector(c.MediaRepo, c.Store)
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			utils.LogIfDevf("Failed to close cache: %v", err)
		}
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
