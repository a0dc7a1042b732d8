package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"nilaiku_backend/internals/configs"
	database "nilaiku_backend/internals/databases"
	"nilaiku_backend/internals/middlewares"
	"nilaiku_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	database.ConnectDB()
	database.TunePool()
	database.Migrate()
	database.WarmUpQueries()
	db := database.DB

	app := fiber.New(fiber.Config{
		AppName:      "Nilaiku Backend",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 45 * time.Second,
	})

	app.Use(requestid.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(etag.New())
	middlewares.SetupMiddlewares(app)

	route.SetupRoutes(app, db)

	// graceful shutdown: selesaikan request berjalan dulu
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("⏳ Shutdown signal diterima, menutup server...")
		if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
			log.Printf("⚠️ Shutdown tidak bersih: %v", err)
		}
	}()

	port := configs.GetEnv("PORT", "8080")
	log.Printf("🚀 Nilaiku Backend jalan di :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("❌ Server berhenti: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("👋 Server berhenti dengan rapi")
}
