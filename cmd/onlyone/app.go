package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/archive"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/cache"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/cart"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/catalog"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/closer"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/database"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/maintenance"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/notifier"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/webhook"
)

// services is the wired object graph shared by serve and the CLI commands
type services struct {
	db          *gorm.DB
	repos       *repository.Repositories
	cacheConfig cache.Config
	redis       *redis.Client
	gateway     *printify.Client
	webhookCfg  webhook.Config
	processor   *webhook.Processor
	carts       *cart.Service
	catalog     *catalog.Service
	maintenance *maintenance.Manager
	closer      *closer.Closer
}

// buildServices opens every dependency and registers it with the returned
// closer. On error everything opened so far is already closed.
func buildServices(ctx context.Context) (_ *services, err error) {
	cl := closer.New(0)
	defer func() {
		if err != nil {
			_ = cl.Close(context.Background())
		}
	}()

	db, err := database.SetupDatabase()
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	cl.Add("database", func(context.Context) error { return database.Close(db) })

	repos := repository.NewFactory(db).GetRepositories()

	cacheCfg := cache.LoadConfig()
	redisClient := cache.NewClient(ctx, cacheCfg)
	cl.AddCloser("redis", redisClient)

	pub := notifier.New(notifier.LoadConfig())
	cl.AddCloser("notifier", pub)

	printifyCfg := printify.LoadConfig()
	if !printifyCfg.IsConfigured() {
		log.Warn("[Printify] PRINTIFY_API_TOKEN or PRINTIFY_SHOP_ID not set, provider calls will fail")
	}
	gateway := printify.NewClient(printifyCfg)

	catalogSvc := catalog.NewService(catalog.LoadConfig(), gateway, cache.NewStore(redisClient, "onlyone:"), repos.Product)

	webhookCfg := webhook.LoadConfig()
	publisher := webhook.NewPublishHandler(repos.Product, gateway, webhookCfg.SiteBaseURL, pub, catalogSvc)
	processor := webhook.NewProcessor(webhookCfg, repos.WebhookEvent, publisher)

	archiveCfg, err := archive.LoadConfig()
	if err != nil {
		return nil, err
	}
	var archiver maintenance.Archiver
	if archiveCfg.IsEnabled() {
		client, err := archive.NewClient(ctx, archiveCfg)
		if err != nil {
			return nil, fmt.Errorf("setup event archive: %w", err)
		}
		archiver = client
	}

	manager := maintenance.NewManager(maintenance.LoadConfig(), repos.WebhookEvent, processor, archiver)
	cl.AddCloser("maintenance", manager)

	return &services{
		db:          db,
		repos:       repos,
		cacheConfig: cacheCfg,
		redis:       redisClient,
		gateway:     gateway,
		webhookCfg:  webhookCfg,
		processor:   processor,
		carts:       cart.NewService(repos.Cart),
		catalog:     catalogSvc,
		maintenance: manager,
		closer:      cl,
	}, nil
}

// webhookURL is the public address of the webhook endpoint
func (s *services) webhookURL() string {
	return webhookEndpoint(s.webhookCfg.SiteBaseURL)
}

func webhookEndpoint(siteBaseURL string) string {
	return siteBaseURL + "/api/webhooks/printify"
}
