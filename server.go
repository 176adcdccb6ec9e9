package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/FranciscoFerrutti/cripto-steganography/handlers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type serverConfig struct {
	Port           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

func serverConfigFromEnv() (serverConfig, error) {
	cfg := serverConfig{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: handlers.DefaultMaxUploadBytes,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("STEGO_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = cfg.AllowedOrigins[:0]
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if mb := os.Getenv("STEGO_MAX_UPLOAD_MB"); mb != "" {
		n, err := strconv.Atoi(mb)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("STEGO_MAX_UPLOAD_MB must be a positive integer, got %q", mb)
		}
		cfg.MaxUploadBytes = int64(n) << 20
	}

	return cfg, nil
}

func newRouter(cfg serverConfig) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = cfg.AllowedOrigins
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	config.ExposeHeaders = []string{"X-Stego-Method", "X-Stego-Message", "X-Stego-Capacity", "X-Stego-PSNR", "X-Stego-Quality", "Content-Disposition"}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	stegoHandler := handlers.NewStegoHandler(cfg.MaxUploadBytes)

	// API Routes
	stegoHandler.Register(router.Group("/api/v1"))

	return router
}

func serve() error {
	cfg, err := serverConfigFromEnv()
	if err != nil {
		return err
	}

	router := newRouter(cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST /api/v1/stego/embed    - Hide a file in a 24-bit BMP (returns stego BMP)")
	log.Printf("  POST /api/v1/stego/extract  - Recover the hidden file from a stego BMP")
	log.Printf("  POST /api/v1/stego/capacity - Report how many bytes each method can hide")
	log.Printf("  GET  /api/v1/health         - Health check")
	log.Printf("")
	log.Printf("Features:")
	log.Printf("  • LSB1, LSB4 and LSBI embedding")
	log.Printf("  • AES-128/192/256 and 3DES in ECB, CBC, CFB or OFB mode")
	log.Printf("  • PSNR quality assessment (returned in X-Stego-PSNR header)")
	log.Printf("  • Uploads limited to %d MB", cfg.MaxUploadBytes>>20)

	if err := router.Run(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
