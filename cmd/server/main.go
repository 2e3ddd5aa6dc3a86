package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"doc-qa-go/internal/config"
	"doc-qa-go/internal/handler"
	"doc-qa-go/internal/middleware"
	"doc-qa-go/internal/pipeline"
	"doc-qa-go/internal/repository"
	"doc-qa-go/internal/service"
	"doc-qa-go/pkg/database"
	"doc-qa-go/pkg/embedding"
	"doc-qa-go/pkg/es"
	"doc-qa-go/pkg/kafka"
	"doc-qa-go/pkg/llm"
	"doc-qa-go/pkg/log"
	"doc-qa-go/pkg/storage"
	"doc-qa-go/pkg/tika"
	"doc-qa-go/pkg/token"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置与日志
	config.Init(*configPath)
	cfg := config.Conf
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	// 2. 初始化基础设施
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Fatalf("初始化 Elasticsearch 失败: %v", err)
	}
	kafka.InitProducer(cfg.Kafka)

	// 3. 装配仓储与客户端
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	docRepo := repository.NewDocumentRepository(database.DB)
	vectorRepo := repository.NewVectorRepository(es.ESClient, cfg.Elasticsearch.IndexName)
	convRepo := repository.NewConversationRepository(
		database.RDB,
		cfg.Chat.HistorySize,
		time.Duration(cfg.Chat.HistoryTTLHours)*time.Hour,
	)

	// 4. 装配管道与服务
	processor := pipeline.NewProcessor(tikaClient, embeddingClient, docRepo, vectorRepo, cfg.MinIO, cfg.Embedding, cfg.RAG)
	synthesizer := service.NewAnswerSynthesizer(llmClient)
	qaService := service.NewQAService(embeddingClient, vectorRepo, synthesizer, cfg.RAG)
	searchService := service.NewSearchService(embeddingClient, vectorRepo, cfg.RAG)
	chatService := service.NewChatService(embeddingClient, vectorRepo, convRepo, llmClient, cfg.RAG)
	docService := service.NewDocumentService(docRepo, vectorRepo, cfg.MinIO)
	jwtManager := token.NewJWTManager(cfg.Chat.TokenSecret, cfg.Chat.TokenExpireMinutes)

	// 5. 启动 Kafka 消费者处理异步入库任务
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 6. 注册路由
	router := setupRouter(cfg, processor, qaService, searchService, chatService, docService, jwtManager)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Infof("服务启动, 监听端口: %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 7. 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号, 开始优雅停机...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("停机超时, 强制退出: %v", err)
	}
	log.Info("服务已退出")
}

func setupRouter(
	cfg config.Config,
	processor *pipeline.Processor,
	qaService *service.QAService,
	searchService *service.SearchService,
	chatService *service.ChatService,
	docService *service.DocumentService,
	jwtManager *token.JWTManager,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(middleware.RequestLogger(), middleware.Recovery())

	docHandler := handler.NewDocumentHandler(processor, docService, cfg.MinIO, cfg.RAG)
	qaHandler := handler.NewQAHandler(qaService)
	searchHandler := handler.NewSearchHandler(searchService)
	chatHandler := handler.NewChatHandler(chatService, jwtManager)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		documents := v1.Group("/documents")
		{
			documents.POST("", docHandler.Upload)
			documents.POST("/ingest", docHandler.Ingest)
			documents.GET("", docHandler.List)
			documents.GET("/count", docHandler.Stats)
			documents.DELETE("/:id", docHandler.Delete)
		}

		v1.POST("/qa/ask", qaHandler.Ask)
		v1.GET("/search", searchHandler.Search)

		chat := v1.Group("/chat")
		{
			chat.GET("/token", chatHandler.IssueToken)
			chat.GET("/ws", chatHandler.Serve)
			chat.DELETE("/history", chatHandler.ClearHistory)
		}
	}

	return router
}
