package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/scribe/internal/config"
	"github.com/Vovarama1992/scribe/internal/delivery"
	ws "github.com/Vovarama1992/scribe/internal/delivery/ws"
	"github.com/Vovarama1992/scribe/internal/domain"
	"github.com/Vovarama1992/scribe/internal/domain/stations"
	"github.com/Vovarama1992/scribe/internal/infra"
	"github.com/Vovarama1992/scribe/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {

	// LOGGER
	zcore, _ := zap.NewProduction()
	zl := logger.NewZapLogger(zcore.Sugar())

	// CONFIG
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic("config: " + err.Error())
	}

	// POSTGRES
	ctx := context.Background()

	pool, err := infra.NewPgxPool(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		panic("cannot connect pgxpool: " + err.Error())
	}
	defer pool.Close()

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctxPing); err != nil {
		panic("postgres ping failed: " + err.Error())
	}

	// METRICS
	met := metrics.New(prometheus.DefaultRegisterer)

	// SERVICES
	authService := domain.NewAuthService(pool, cfg.Server.AuthSecret)
	transcriptRepo := infra.NewPostgresTranscriptRepo(pool)

	tokens := infra.NewTokenManager(cfg.WeChat, met)
	platform := infra.NewWeChatClient(cfg.WeChat, tokens, met)
	encoder := stations.NewS1EncodeMP3(cfg.Encoder.FFmpegPath)

	recognizeService := domain.NewRecognizeService(
		transcriptRepo,
		encoder,
		platform,
		met,
	)

	// WS HUB
	hub := ws.NewHub()

	// BROADCAST LISTENER
	go func() {
		for ev := range recognizeService.Events() {

			type wsEvent struct {
				TranscriptID int    `json:"transcriptId"`
				Status       string `json:"status"`
				Text         string `json:"text,omitempty"`
			}

			payload, err := json.Marshal(wsEvent{
				TranscriptID: ev.TranscriptID,
				Status:       ev.Status,
				Text:         ev.Text,
			})
			if err != nil {
				log.Printf("[SEND][ERR] json marshal failed: %v", err)
				continue
			}

			hub.SendToRoom(ev.RoomID, payload)
		}
	}()

	// HANDLERS
	authHandler := delivery.NewAuthHandler(authService, zl)
	recognizeHandler := delivery.NewRecognizeHandler(
		recognizeService,
		transcriptRepo,
		cfg.WeChat.Lang,
		zl,
	)

	// ROUTER
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Auth"},
		AllowCredentials: true,
	}))

	delivery.RegisterRoutes(r, authHandler, authService, recognizeHandler)

	r.Get("/ws", ws.WSHandler(hub))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "server started",
		Fields:  map[string]any{"port": cfg.Server.Port},
	})

	if err := http.ListenAndServe(":"+cfg.Server.Port, r); err != nil {
		zl.Log(logger.LogEntry{
			Level:   "error",
			Message: "server crashed",
			Error:   err,
		})
	}
}
