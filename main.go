package main

import (
	"context"
	"time"

	"github.com/cppla/pubfeed/config"
	"github.com/cppla/pubfeed/models"
	"github.com/cppla/pubfeed/routes"
	"github.com/cppla/pubfeed/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.L().Sync() }()

	db := config.InitDatabase(models.All()...)
	rc := utils.InitRedis(cfg)
	if rc == nil {
		utils.Sugar.Info("redis disabled, using in-process locks and no cache")
	}

	r := routes.SetupRouter(db, rc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.StartBlacklistSweeper(ctx, 5*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
