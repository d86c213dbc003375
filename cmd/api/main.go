package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/linguabridge/backend/internal/config"
	"github.com/linguabridge/backend/internal/handler"
	"github.com/linguabridge/backend/internal/language"
	chatservice "github.com/linguabridge/backend/internal/service/chat"
	"github.com/linguabridge/backend/internal/service/geo"
	"github.com/linguabridge/backend/internal/service/translate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize chat session: one store and one upstream connection per
	// gateway process.
	store := chatservice.NewStore()
	chatClient := chatservice.NewClient(chatservice.Options{
		URL:   cfg.Upstream.ChatWSURL,
		Store: store,
	})
	defer chatClient.Close()

	defaultLang := language.Resolve(cfg.Chat.DefaultLanguage)
	chatClient.Open(context.Background(), defaultLang)
	log.Printf("chat session %s started with language %s", chatClient.SessionID(), defaultLang)

	// Initialize upstream translation client
	translateSvc := translate.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	// Initialize geo lookup service; Redis 未配置时退化为进程内缓存
	var geoCache geo.Cache
	if cfg.Geo.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Geo.RedisAddr})
		geoCache = geo.NewRedisCache(rdb, cfg.Geo.CacheTTL)
		log.Printf("geo cache backed by redis at %s", cfg.Geo.RedisAddr)
	} else {
		geoCache = geo.NewMemoryCache()
		log.Println("geo cache running in-memory")
	}
	geoSvc := geo.NewService(cfg.Geo.BaseURL, geoCache, cfg.Geo.Timeout)

	router := handler.NewRouter(chatClient, translateSvc, geoSvc)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Lingua Bridge gateway listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
