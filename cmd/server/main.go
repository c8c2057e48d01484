package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"survivor/internal/api"
	"survivor/internal/config"
	"survivor/internal/game"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🧟 ================================")
	log.Println("🧟  SURVIVOR - GO ENGINE")
	log.Println("🧟  Waves, pools and a shooter")
	log.Println("🧟 ================================")

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	simCfg := appConfig.Simulation
	serverCfg := appConfig.Server
	obsCfg := appConfig.Observability

	log.Printf("🎮 Config: %d TPS, %d Hz physics, arena %.0fx%.0f, %d enemy types, %d levels",
		simCfg.TickRate, simCfg.PhysicsRate, simCfg.ArenaWidth, simCfg.ArenaDepth,
		len(appConfig.Enemies), len(appConfig.Match.Levels))

	engine, err := game.NewEngine(appConfig, api.MetricsHooks())
	if err != nil {
		log.Fatalf("❌ Failed to create engine: %v", err)
	}

	if err := engine.StartEventLog(obsCfg.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if obsCfg.EventLogPath != "" {
		log.Printf("📝 Event log: %s", obsCfg.EventLogPath)
	}

	if err := api.StartDebugServer(obsCfg.DebugAddr); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	server := api.NewServer(engine, serverCfg)

	engine.Start()
	log.Println("✅ Game Engine started")

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🕹️ Input: POST http://localhost%s/api/input", addr)

		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	engine.Stop()
	log.Println("👋 Goodbye!")
}
