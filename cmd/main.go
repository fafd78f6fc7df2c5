package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/VanshSharma0/MyTube/internal/api"
	"github.com/VanshSharma0/MyTube/internal/controller"
	"github.com/VanshSharma0/MyTube/internal/migrations"
	"github.com/VanshSharma0/MyTube/internal/service"
	"github.com/VanshSharma0/MyTube/internal/storage/postgres"
	redisstorage "github.com/VanshSharma0/MyTube/internal/storage/redis"
	"github.com/VanshSharma0/MyTube/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger, "./internal/migrations"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	serverConfig := util.NewServerConfig()
	tokenConfig := util.NewTokenConfig()

	userRepository := postgres.NewUserRepository(db)
	tokenService := service.NewTokenService(tokenConfig)
	authService := service.NewAuthService(userRepository, tokenService, logger)

	mediaService, err := service.NewMediaService(ctx, util.NewS3Config(), logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	rateLimiter := redisstorage.NewRateLimiter(redisClient, util.NewRateLimiterConfig())

	c := controller.NewController(authService, mediaService, serverConfig, tokenConfig, logger)

	apiServer := api.NewAPI(c, authService, rateLimiter, serverConfig, logger, cleanupFuncs)
	apiServer.Run(ctx)
}
