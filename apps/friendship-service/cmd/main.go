package main

import (
	"github.com/gin-gonic/gin"

	"social-network/apps/friendship-service/dao"
	"social-network/apps/friendship-service/handler"
	"social-network/apps/friendship-service/service"
	"social-network/pkg/cache"
	"social-network/pkg/server"
)

func main() {
	serviceName := "friendship-service"

	// 创建应用程序
	app := server.NewApplication(serviceName)

	// 启用HTTP服务器
	app.EnableHTTP()

	// 获取PostgreSQL连接并迁移表结构
	postgreSQL := app.GetPostgreSQL()
	if err := dao.Migrate(postgreSQL); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// 初始化DAO层
	friendshipDAO := dao.NewFriendshipDAO(postgreSQL)
	userDAO := dao.NewUserDAO(postgreSQL)

	// 初始化缓存层
	cacheStore := cache.NewRedisStore(app.GetRedisClient())

	// 初始化Service层
	cfg := app.GetConfig()
	friendshipService := service.NewService(
		friendshipDAO,
		userDAO,
		cacheStore,
		app.GetKafkaProducer(),
		service.Config{
			RequestCooldown: cfg.Friendship.RequestCooldown(),
			CacheTTL:        cfg.Friendship.CacheTTL(),
			EventTopic:      cfg.Kafka.EventTopic,
		},
		app.GetLogger(),
	)

	// 初始化Handler层并注册路由
	httpHandler := handler.NewHTTPHandler(friendshipService, app.GetLogger())
	app.RegisterHTTPRoutes(func(engine *gin.Engine) {
		httpHandler.RegisterRoutes(engine)
	})

	// 运行应用程序
	if err := app.Run(); err != nil {
		panic(err)
	}
}
