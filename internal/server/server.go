package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	middlewareLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yockii/knorm/internal/api"
	"github.com/yockii/knorm/internal/job"
	"github.com/yockii/knorm/internal/middleware"
	"github.com/yockii/knorm/internal/service"
	"github.com/yockii/knorm/pkg/config"
	"github.com/yockii/knorm/pkg/logger"
)

type Server struct {
	app *fiber.App
	db  *gorm.DB

	// 缓存刷新任务，未启用时为nil
	refresher *job.PetCacheRefresher
	// 写请求限流，未启用时为nil
	limiter *middleware.RateLimiter

	largeModelSrv        service.LargeModelService
	promptOptionSrv      service.PromptOptionService
	promptTemplateSrv    service.PromptTemplateService
	knowledgeBaseSrv     service.KnowledgeBaseService
	knowledgeResourceSrv service.KnowledgeResourceService
}

func New(db *gorm.DB, refresher *job.PetCacheRefresher) *Server {
	s := &Server{
		db:        db,
		refresher: refresher,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               config.GetString("server.app_name"),
		EnablePrintRoutes:     config.GetBool("server.print_routes"),
		DisableStartupMessage: true,
	})

	s.setupServices()
	s.setupMiddleware()
	s.registerHandlers()
	s.setupRoutesV1()
	return s
}

// NewServices 按数据库连接创建全部服务，供命令行复用
func NewServices(db *gorm.DB) (
	service.LargeModelService,
	service.PromptOptionService,
	service.PromptTemplateService,
	service.KnowledgeBaseService,
	service.KnowledgeResourceService,
) {
	optionSrv := service.NewPromptOptionService(db)
	return service.NewLargeModelService(db),
		optionSrv,
		service.NewPromptTemplateService(db, optionSrv),
		service.NewKnowledgeBaseService(db),
		service.NewKnowledgeResourceService(db)
}

// App 返回底层fiber实例
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	if s.refresher != nil {
		if err := s.refresher.Start(); err != nil {
			return err
		}
		defer s.refresher.Stop()
	}

	addr := config.GetServerAddress()
	logger.Info("服务监听地址", logger.F("address", addr))

	// 优雅关闭
	go s.gracefulShutdown()

	if err := s.app.Listen(addr); err != nil {
		logger.Error("服务停止", logger.F("error", err))
		return err
	}
	return nil
}

func (s *Server) gracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务关闭中...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Error("服务关闭失败", logger.F("error", err))
	}

	logger.Info("服务已关闭")
}

// Shutdown 关闭HTTP服务并停止后台限流清理
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) setupServices() {
	s.largeModelSrv,
		s.promptOptionSrv,
		s.promptTemplateSrv,
		s.knowledgeBaseSrv,
		s.knowledgeResourceSrv = NewServices(s.db)
}

// setupMiddleware 配置中间件
func (s *Server) setupMiddleware() {
	// 异常恢复
	s.app.Use(recover.New())

	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetString("security.allowed_origins"),
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// 访问日志
	s.app.Use(middlewareLogger.New(middlewareLogger.Config{
		Format:     "[${ip}]-${time} ${locals:requestid} ${status} ${latency} ${method} ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	if config.GetBool("server.metrics") {
		prometheus := fiberprometheus.New(config.GetString("server.app_name"))
		prometheus.RegisterAt(s.app, "/metrics")
		s.app.Use(prometheus.Middleware)
	}

	if limit := config.GetInt("security.rate_limit"); limit > 0 {
		s.limiter = middleware.NewRateLimiter(limit, time.Minute)
		s.limiter.Start()
		s.app.Use(s.limiter.Handler())
	}
}

func (s *Server) registerHandlers() {
	api.Handlers = nil

	// 注意接口里的nil判断，未启用刷新时不能传入空指针
	var refresher api.CacheRefresher
	if s.refresher != nil {
		refresher = s.refresher
	}

	api.RegisterLargeModelHandler(s.largeModelSrv)
	api.RegisterPromptTemplateHandler(s.promptTemplateSrv, refresher)
	api.RegisterPromptOptionHandler(s.promptOptionSrv, refresher)
	api.RegisterKnowledgeHandler(s.knowledgeBaseSrv, s.knowledgeResourceSrv)
}

func (s *Server) setupRoutesV1() {
	apiGroup := s.app.Group("/api/v1")
	for _, handler := range api.Handlers {
		handler.RegisterRoutes(apiGroup)
	}

	// 健康检查
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
}
