package main

import (
	"log"
	"os"

	"backend_crm/api"
	"backend_crm/config"
	"backend_crm/database"
	"backend_crm/middleware"
	"backend_crm/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// initDB инициализирует подключение к базе данных
func initDB() {
	log.Println("🔧 Инициализация базы данных...")

	// Создаем базу данных, если она не существует
	if err := database.CreateDatabaseIfNotExists(); err != nil {
		log.Fatal("❌ Ошибка при создании базы данных:", err)
	}

	// Подключаемся к базе данных
	if err := database.ConnectDatabase(); err != nil {
		log.Fatal("❌ Ошибка подключения к базе данных:", err)
	}

	log.Println("✅ База данных успешно инициализирована")
}

func main() {
	// Загружаем конфигурацию (включая .env, если он есть)
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("❌ Ошибка загрузки конфигурации:", err)
	}

	// Инициализируем базу данных
	initDB()

	// Redis необязателен: без него отзыв refresh-токенов живет в памяти процесса
	if err := database.InitRedis(); err != nil {
		log.Println("⚠️  Redis недоступен, отзыв токенов работает в памяти:", err)
	}

	logger := log.New(os.Stdout, "[CRM] ", log.LstdFlags)

	tokenService := services.NewTokenService(cfg.JWT, database.GetRedis(), logger)
	api.SetTokenService(tokenService)

	auditService := services.NewAuditService(database.GetDB(), logger)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, database.GetDB())
	activityLogger := middleware.NewActivityLoggerMiddleware(auditService)

	// Настраиваем Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))

	// Базовые роуты
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "success",
			"message":  "pong",
			"database": "connected",
		})
	})

	// Публичные роуты аутентификации
	public := r.Group("/api")
	{
		public.POST("/login", api.Login)
		public.POST("/refresh", api.RefreshToken)
	}

	// Защищенные роуты. Успешные изменяющие запросы попадают в журнал действий
	protected := r.Group("/api")
	protected.Use(authMiddleware.RequireAuth())
	protected.Use(activityLogger.Handler())
	{
		protected.POST("/logout", api.Logout)
		protected.GET("/current-user", api.CurrentUser)
		protected.GET("/dashboard-metrics", api.GetDashboardMetrics)
		protected.GET("/activity-logs", api.GetActivityLogs)

		// Пользователи: список доступен всем, остальное только администраторам
		protected.GET("/users", api.GetUsers)
		protected.GET("/users/choices", api.GetUserChoices)
		admin := protected.Group("/users")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("", api.CreateUser)
			admin.GET("/:id", api.GetUser)
			admin.PUT("/:id", api.UpdateUser)
			admin.DELETE("/:id", api.DeleteUser)
		}

		// Контрагенты
		protected.GET("/accounts", api.GetAccounts)
		protected.POST("/accounts", api.CreateAccount)
		protected.GET("/accounts/choices", api.GetAccountChoices)
		protected.GET("/accounts/export", api.ExportAccounts)
		protected.GET("/accounts/:id", api.GetAccount)
		protected.PUT("/accounts/:id", api.UpdateAccount)
		protected.DELETE("/accounts/:id", api.DeleteAccount)

		// Контактные лица
		protected.GET("/contacts", api.GetContacts)
		protected.POST("/contacts", api.CreateContact)
		protected.GET("/contacts/choices", api.GetContactChoices)
		protected.GET("/contacts/:id", api.GetContact)
		protected.PUT("/contacts/:id", api.UpdateContact)
		protected.DELETE("/contacts/:id", api.DeleteContact)

		// Лиды
		protected.GET("/leads", api.GetLeads)
		protected.POST("/leads", api.CreateLead)
		protected.GET("/leads/choices", api.GetLeadChoices)
		protected.GET("/leads/export", api.ExportLeads)
		protected.GET("/leads/:id", api.GetLead)
		protected.PUT("/leads/:id", api.UpdateLead)
		protected.DELETE("/leads/:id", api.DeleteLead)

		// Сделки
		protected.GET("/opportunities", api.GetOpportunities)
		protected.POST("/opportunities", api.CreateOpportunity)
		protected.GET("/opportunities/choices", api.GetOpportunityChoices)
		protected.GET("/opportunities/:id", api.GetOpportunity)
		protected.PUT("/opportunities/:id", api.UpdateOpportunity)
		protected.DELETE("/opportunities/:id", api.DeleteOpportunity)

		// Задачи
		protected.GET("/tasks", api.GetTasks)
		protected.POST("/tasks", api.CreateTask)
		protected.GET("/tasks/choices", api.GetTaskChoices)
		protected.GET("/tasks/:id", api.GetTask)
		protected.PUT("/tasks/:id", api.UpdateTask)
		protected.DELETE("/tasks/:id", api.DeleteTask)
		protected.POST("/tasks/:id/updates", api.AddTaskUpdate)

		// Коммерческие предложения
		protected.GET("/quotes", api.GetQuotes)
		protected.POST("/quotes", api.CreateQuote)
		protected.GET("/quotes/choices", api.GetQuoteChoices)
		protected.GET("/quotes/:id", api.GetQuote)
		protected.PUT("/quotes/:id", api.UpdateQuote)
		protected.DELETE("/quotes/:id", api.DeleteQuote)
		protected.GET("/quotes/:id/pdf", api.GetQuotePDF)

		// Заметки
		protected.GET("/notes", api.GetNotes)
		protected.POST("/notes", api.CreateNote)
		protected.GET("/notes/choices", api.GetNoteChoices)
		protected.GET("/notes/:id", api.GetNote)
		protected.PUT("/notes/:id", api.UpdateNote)
		protected.DELETE("/notes/:id", api.DeleteNote)
	}

	log.Printf("🚀 Сервер запущен на порту %s", cfg.App.Port)
	if err := r.Run(cfg.App.Host + ":" + cfg.App.Port); err != nil {
		log.Fatal("❌ Ошибка запуска сервера:", err)
	}
}
