package app

import (
	"database/sql"
	"fmt"
	"log"

	"kolboard/internal/config"
	"kolboard/internal/handlers"
	"kolboard/internal/middleware"
	"kolboard/internal/pdf"
	"kolboard/internal/repositories"
	"kolboard/internal/routes"
	"kolboard/internal/services"
	"kolboard/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "kolboard/docs"
)

func Run() {
	cfg := config.LoadConfig()
	if cfg.Auth.JWTSecret != "" {
		middleware.SetJWTKey(cfg.Auth.JWTSecret)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	opportunityRepo := repositories.NewOpportunityRepository(db)
	historyRepo := repositories.NewStageHistoryRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)
	formRepo := repositories.NewFormRepository(db)
	listRepo := repositories.NewListRepository(db)
	assistantRepo := repositories.NewAssistantRepository(db)

	// === Services ===
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	notifyService := services.NewNotifyService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	userService := services.NewUserService(userRepo)
	pipelineService := services.NewPipelineService(opportunityRepo, historyRepo, notifyService)
	orderingService := services.NewOrderingService(opportunityRepo, pipelineService)
	contactService := services.NewContactService(contactRepo)
	outreachService := services.NewOutreachService(opportunityRepo, contactRepo, emailService)
	campaignService := services.NewCampaignService(campaignRepo)
	listService := services.NewListService(listRepo)

	pdfGen := pdf.NewReportGenerator()
	formService := services.NewFormService(formRepo, pipelineService, pdfGen)
	reportService := services.NewReportService(opportunityRepo, pdfGen)

	llmClient := utils.NewLLMClient(
		cfg.Assistant.BaseURL,
		cfg.Assistant.APIKey,
		cfg.Assistant.Model,
		cfg.Assistant.DryRun,
	)
	assistantService := services.NewAssistantService(assistantRepo, llmClient, opportunityRepo)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	opportunityHandler := handlers.NewOpportunityHandler(pipelineService, orderingService, outreachService)
	contactHandler := handlers.NewContactHandler(contactService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	formHandler := handlers.NewFormHandler(formService, emailService, cfg.PublicBaseURL)
	listHandler := handlers.NewListHandler(listService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)
	reportHandler := handlers.NewReportHandler(reportService)

	// === Gin ===
	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// JWT/RBAC is wired inside SetupRoutes
	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		opportunityHandler,
		contactHandler,
		campaignHandler,
		formHandler,
		listHandler,
		assistantHandler,
		reportHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server failed: ", err)
	}
}
