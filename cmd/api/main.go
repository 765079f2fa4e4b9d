package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cloudvault/internal/blob"
	"cloudvault/internal/config"
	"cloudvault/internal/database"
	"cloudvault/internal/domain/account"
	"cloudvault/internal/domain/file"
	"cloudvault/internal/domain/folder"
	"cloudvault/internal/domain/plan"
	"cloudvault/internal/domain/share"
	"cloudvault/internal/middleware"
	jwtsvc "cloudvault/internal/pkg/jwt"
	"cloudvault/internal/pkg/sharetoken"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	store, err := blob.NewS3Store(context.Background(), blob.S3Config{
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		AccessKeyID:  cfg.S3AccessKeyID,
		SecretKey:    cfg.S3SecretKey,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		log.Fatal(err)
	}

	sessionTokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	shareTokens := sharetoken.New(cfg.ShareTokenSecret, cfg.ShareTokenTTL)

	accountRepo := account.NewRepository(db)
	planRepo := plan.NewRepository(db)
	folderRepo := folder.NewRepository(db)
	fileRepo := file.NewRepository(db)
	shareRepo := share.NewRepository(db)

	planService := plan.NewService(planRepo)
	folderService := folder.NewService(folderRepo, fileRepo, planService, cfg.RebuildBatchSize)
	quota := file.NewQuotaEnforcer(fileRepo, planService)
	fileService := file.NewService(fileRepo, store, quota, folderService, planService, cfg.BlobTimeout, cfg.UploadURLTTL)
	shareService := share.NewService(shareRepo, planService, shareTokens, fileRepo, folderRepo, cfg.ShareDefaultDays)
	accountService := account.NewService(accountRepo, planService, sessionTokens)

	accountHandler := account.NewHandler(accountService)
	planHandler := plan.NewHandler(planService, quota)
	folderHandler := folder.NewHandler(folderService)
	fileHandler := file.NewHandler(fileService, int64(cfg.DownloadURLTTL.Seconds()))
	shareHandler := share.NewHandler(shareService)
	sharePublicHandler := share.NewPublicHandler(shareService, store, cfg.DownloadURLTTL)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	// Visitor-facing share links live at the root so tokens stay short.
	share.RegisterPublicRoutes(&r.RouterGroup, sharePublicHandler)

	v1 := r.Group("/api/v1")
	{
		account.RegisterPublicRoutes(v1, accountHandler)
		plan.RegisterPublicRoutes(v1, planHandler)

		protected := v1.Group("/")
		protected.Use(middleware.Auth(sessionTokens))
		{
			account.RegisterRoutes(protected, accountHandler)
			plan.RegisterRoutes(protected, planHandler)
			folder.RegisterRoutes(protected, folderHandler)
			file.RegisterRoutes(protected, fileHandler)
			share.RegisterRoutes(protected, shareHandler)
		}
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
