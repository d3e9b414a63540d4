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

	"github.com/linqiu/polychat/backend/internal/auth"
	"github.com/linqiu/polychat/backend/internal/config"
	"github.com/linqiu/polychat/backend/internal/handler"
	"github.com/linqiu/polychat/backend/internal/model/catalog"
	aiservice "github.com/linqiu/polychat/backend/internal/service/ai"
	chatservice "github.com/linqiu/polychat/backend/internal/service/chat"
	"github.com/linqiu/polychat/backend/internal/store"
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

	messageStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open message store: %v", err)
	}
	defer messageStore.Close()

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		log.Fatalf("failed to configure authentication: %v", err)
	}

	var generator chatservice.Generator = aiservice.Disabled{}
	if cfg.AI.Enabled() {
		aiSvc, err := aiservice.NewService(cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize generation service: %v", err)
			log.Println("continuing without generation - sends will fail until credentials are fixed")
		} else {
			generator = aiSvc
			log.Println("generation service initialized successfully")
		}
	} else {
		log.Println("generation credentials not configured, sends will fail")
	}

	chatSvc := chatservice.NewService(messageStore, generator, cfg.AI.HistoryWindow)
	models := catalog.NewMemoryStore(catalog.Seed())

	router := handler.NewRouter(models, chatSvc, verifier, messageStore)

	startServer(ctx, cfg.Server, router)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.MessageStore, error) {
	if cfg.InMemory() {
		log.Println("using in-memory message store, history will not survive restarts")
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLiteStore(ctx, cfg.Path)
}

func newVerifier(cfg config.AuthConfig) (auth.Verifier, error) {
	switch {
	case cfg.ProviderURL != "":
		log.Printf("verifying credentials against %s", cfg.ProviderURL)
		return auth.NewHTTPVerifier(cfg.ProviderURL), nil
	case len(cfg.StaticTokens) > 0:
		log.Printf("using static token verifier with %d tokens", len(cfg.StaticTokens))
		return auth.NewStaticVerifier(cfg.StaticTokens), nil
	default:
		return nil, errors.New("set AUTH_PROVIDER_URL or AUTH_STATIC_TOKENS")
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Polychat backend listening on %s", addr)
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
