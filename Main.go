package main

import (
	"log"

	"github.com/gautam-ch/KrashiDukan/config"
	"github.com/gautam-ch/KrashiDukan/routers"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		dbInstance, _ := db.DB()
		_ = dbInstance.Close()
	}()

	rdb, err := config.SetupRedisConnection(cfg)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	router, err := routers.SetupRouters(cfg, db, rdb)
	if err != nil {
		log.Fatalf("failed to set up routes: %v", err)
	}

	log.Printf("listening on %s", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
