package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	appdb "github.com/yourorg/velora/internal/db"
	"github.com/yourorg/velora/internal/gemini"
	"github.com/yourorg/velora/internal/handlers"
	"github.com/yourorg/velora/internal/middleware"
	"github.com/yourorg/velora/internal/planner"
	"github.com/yourorg/velora/internal/routes"
	"github.com/yourorg/velora/internal/station"
	"github.com/yourorg/velora/internal/tomtom"
	"github.com/yourorg/velora/internal/traffic"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New()
	app.Use(logger.New())
	app.Use(middleware.GlobalRateLimiter())

	// ============================================================================
	// CLIENTES EXTERNOS
	// ============================================================================
	ttClient := tomtom.NewClient()
	if ttClient.HasKey() {
		log.Println("✅ TomTom configurado (routing + traffic flow)")
	} else {
		log.Println("⚠️  TOMTOM_KEY no definida: rutas interpoladas y tráfico por modelo horario")
	}

	aiClient := gemini.NewClient()
	if aiClient.HasKey() {
		log.Println("✅ Gemini configurado (operadores, hoteles, tráfico por ruta)")
	} else {
		log.Println("⚠️  GEMINI_KEY no definida: se usarán valores por defecto")
	}

	// Proveedores opcionales solo si tienen credenciales; un interface con
	// puntero nil no cuenta como ausente
	var flow traffic.FlowProvider
	if ttClient.HasKey() {
		flow = ttClient
	}
	var ai planner.AIInferrer
	if aiClient.HasKey() {
		ai = aiClient
	}
	var aiTraffic traffic.AIEstimator
	if aiClient.HasKey() {
		aiTraffic = aiClient
	}

	estimator := traffic.NewEstimator(flow, aiTraffic, time.Now().UnixNano())

	// ============================================================================
	// DB CONNECTION
	// ============================================================================
	var dbReady bool

	go func() {
		for {
			db, err := appdb.Connect()
			if err != nil {
				log.Printf("db connect error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if err := appdb.EnsureSchema(db); err != nil {
				log.Printf("ensure schema error: %v (retrying in 5s)", err)
				time.Sleep(5 * time.Second)
				continue
			}

			store := station.NewMySQLStore(db)

			trip := planner.New(planner.Options{
				Store:     store,
				Operators: store,
				Hotels:    store,
				Router:    ttClient,
				AI:        ai,
				Estimator: estimator,
				Seed:      time.Now().UnixNano(),
			})

			handlers.Setup(handlers.Deps{
				DB:        db,
				Store:     store,
				Planner:   trip,
				TomTom:    ttClient,
				Estimator: estimator,
			})
			routes.Register(app)
			dbReady = true
			log.Printf("✅ Database ready and routes registered")

			if counts, err := store.Counts(); err == nil {
				log.Printf("📊 Datos cargados: %v", counts)
			}
			return
		}
	}()

	// Wait briefly for DB to be ready
	for i := 0; i < 10 && !dbReady; i++ {
		time.Sleep(500 * time.Millisecond)
	}

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Señal de terminación recibida, cerrando servidor...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error cerrando servidor: %v", err)
		}

		log.Println("✅ Servidor cerrado correctamente")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Servidor escuchando en :%s", port)
	log.Println("📍 Endpoints disponibles:")
	log.Println("   POST   /api/plan               - Planificación multimodal de viajes")
	log.Println("   GET    /api/geocode/search     - Buscar lugar por nombre")
	log.Println("   GET    /api/geocode/reverse    - Coordenadas a nombre de lugar")
	log.Println("   GET    /api/stations/nearby    - Estaciones cercanas")
	log.Println("   GET    /api/hotels/nearby      - Hoteles cercanos")
	log.Println("   GET    /api/traffic/point      - Congestión en un punto")
	log.Println("   GET    /api/traffic/warnings   - Ventanas de tráfico del día")
	log.Println("   GET    /api/health             - Health check")
	log.Println("   GET    /api/status             - Estado del sistema")
	log.Println("")
	log.Println("💡 Presiona Ctrl+C para detener")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
