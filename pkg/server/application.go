package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	kratoslog "github.com/go-kratos/kratos/v2/log"

	"social-network/pkg/config"
	"social-network/pkg/database"
	"social-network/pkg/kafka"
	"social-network/pkg/lifecycle"
	"social-network/pkg/logger"
	"social-network/pkg/middleware"
	"social-network/pkg/redis"
	"social-network/pkg/snowflake"
	"social-network/pkg/telemetry"
)

// Application 应用程序框架
type Application struct {
	serviceName    string
	config         *config.Config
	logger         kratoslog.Logger
	originalLogger logger.Logger
	serverManager  *ServerManager
	lifecycle      *lifecycle.LifecycleManager

	// 基础设施组件
	postgreSQL    *database.PostgreSQL
	redisClient   *redis.RedisClient
	kafkaProducer *kafka.Producer
	telemetry     *telemetry.Provider
	idGen         *snowflake.Snowflake

	// 中间件
	authMiddleware    *middleware.AuthMiddleware
	loggingMiddleware *middleware.LoggingMiddleware
	otelMiddleware    *middleware.OTelMiddleware
	auditMiddleware   *middleware.AuditMiddleware

	// 注册函数
	httpRouteRegister func(*gin.Engine)
}

// NewApplication 创建应用程序
func NewApplication(serviceName string) *Application {
	cfg, err := config.LoadConfig(serviceName)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	originalLogger := logger.GetLogger()

	kratosLogger := logger.NewKratosStdLogger(cfg.App.Name, cfg.App.Version)

	lifecycleManager := lifecycle.NewLifecycleManager(kratosLogger)
	serverManager := NewServerManager(cfg, kratosLogger)

	app := &Application{
		serviceName:    serviceName,
		config:         cfg,
		logger:         kratosLogger,
		originalLogger: originalLogger,
		serverManager:  serverManager,
		lifecycle:      lifecycleManager,
	}

	app.initInfrastructure()
	app.initMiddleware()

	return app
}

// initInfrastructure 初始化基础设施组件
func (app *Application) initInfrastructure() {
	// 初始化PostgreSQL
	postgreSQL, err := database.NewPostgreSQL(app.config.Database.PostgreSQL.DSN, app.config.Database.PostgreSQL.DBName)
	if err != nil {
		app.logger.Log(kratoslog.LevelFatal, "msg", "Failed to connect to PostgreSQL", "error", err)
		panic(err)
	}
	app.postgreSQL = postgreSQL

	// 初始化Redis
	app.redisClient = redis.NewRedisClient(app.config.Redis.Addr, app.config.Redis.Password, app.config.Redis.DB)

	// 初始化Kafka
	kafkaProducer, err := kafka.InitProducer(app.config.Kafka.Brokers)
	if err != nil {
		app.logger.Log(kratoslog.LevelFatal, "msg", "Failed to connect to Kafka", "error", err)
		panic(err)
	}
	app.kafkaProducer = kafkaProducer
	go app.drainProducer()

	// 初始化OpenTelemetry
	provider, err := telemetry.NewProvider(telemetry.DefaultConfig(app.serviceName))
	if err != nil {
		app.logger.Log(kratoslog.LevelFatal, "msg", "Failed to initialize telemetry", "error", err)
		panic(err)
	}
	app.telemetry = provider

	// 初始化ID生成器
	idGen, err := snowflake.NewSnowflake(0)
	if err != nil {
		panic(err)
	}
	app.idGen = idGen
}

// initMiddleware 初始化中间件
func (app *Application) initMiddleware() {
	app.authMiddleware = middleware.NewAuthMiddleware(app.logger, app.config.App.JWTSecret)
	app.loggingMiddleware = middleware.NewLoggingMiddleware(app.logger)
	app.otelMiddleware = middleware.NewOTelMiddleware(app.serviceName)
	app.auditMiddleware = middleware.NewAuditMiddleware(
		app.kafkaProducer, app.config.Kafka.AuditTopic, app.idGen, app.logger)
}

// drainProducer 回收Kafka生产回执，失败仅记录日志
func (app *Application) drainProducer() {
	for {
		select {
		case msg, ok := <-app.kafkaProducer.Successes():
			if !ok {
				return
			}
			_ = msg
		case err, ok := <-app.kafkaProducer.Errors():
			if !ok {
				return
			}
			app.logger.Log(kratoslog.LevelError, "msg", "Kafka produce failed", "error", err.Err, "topic", err.Msg.Topic)
		}
	}
}

// EnableHTTP 启用HTTP服务器
func (app *Application) EnableHTTP() HTTPServer {
	httpServer := app.serverManager.EnableHTTP()

	// 添加中间件
	httpServer.RegisterRoutes(func(engine *gin.Engine) {
		engine.Use(app.loggingMiddleware.GinLogging())
		engine.Use(app.loggingMiddleware.GinRecovery())
		engine.Use(app.otelMiddleware.GinMiddleware())
		engine.Use(app.authMiddleware.GinAuth())
		engine.Use(app.otelMiddleware.GinEnrich())
		engine.Use(app.auditMiddleware.GinAudit())
	})

	return httpServer
}

// RegisterHTTPRoutes 注册HTTP路由
func (app *Application) RegisterHTTPRoutes(registerFunc func(*gin.Engine)) {
	app.httpRouteRegister = registerFunc
}

// GetPostgreSQL 获取PostgreSQL连接
func (app *Application) GetPostgreSQL() *database.PostgreSQL {
	return app.postgreSQL
}

// GetRedisClient 获取Redis客户端
func (app *Application) GetRedisClient() *redis.RedisClient {
	return app.redisClient
}

// GetKafkaProducer 获取Kafka生产者
func (app *Application) GetKafkaProducer() *kafka.Producer {
	return app.kafkaProducer
}

// GetLogger 获取原有日志器
func (app *Application) GetLogger() logger.Logger {
	return app.originalLogger
}

// GetKratosLogger 获取Kratos日志器
func (app *Application) GetKratosLogger() kratoslog.Logger {
	return app.logger
}

// GetConfig 获取配置
func (app *Application) GetConfig() *config.Config {
	return app.config
}

// Run 运行应用程序
func (app *Application) Run() error {
	app.registerLifecycleHooks()

	if err := app.lifecycle.Start(); err != nil {
		return fmt.Errorf("failed to start lifecycle: %w", err)
	}

	app.lifecycle.Wait()

	return nil
}

// registerLifecycleHooks 注册生命周期钩子
func (app *Application) registerLifecycleHooks() {
	if app.httpRouteRegister != nil {
		app.serverManager.RegisterHTTPRoutes(app.httpRouteRegister)
	}

	// 服务器启动钩子
	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "servers",
		Priority: 100,
		OnStart: func(ctx context.Context) error {
			return app.serverManager.StartAll(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return app.serverManager.StopAll(ctx)
		},
	})

	// 基础设施清理钩子
	app.lifecycle.AddHook(lifecycle.Hook{
		Name:     "infrastructure",
		Priority: 300,
		OnStop: func(ctx context.Context) error {
			if err := app.telemetry.Shutdown(ctx); err != nil {
				app.logger.Log(kratoslog.LevelError, "msg", "Failed to shutdown telemetry", "error", err)
			}
			if app.kafkaProducer != nil {
				if err := app.kafkaProducer.Close(); err != nil {
					app.logger.Log(kratoslog.LevelError, "msg", "Failed to close Kafka producer", "error", err)
				}
			}
			if app.redisClient != nil {
				if err := app.redisClient.Close(); err != nil {
					app.logger.Log(kratoslog.LevelError, "msg", "Failed to close Redis", "error", err)
				}
			}
			if app.postgreSQL != nil {
				if err := app.postgreSQL.Close(); err != nil {
					app.logger.Log(kratoslog.LevelError, "msg", "Failed to close PostgreSQL", "error", err)
				}
			}
			return nil
		},
	})
}
