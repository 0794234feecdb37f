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

	"github.com/synpt/backend/internal/config"
	"github.com/synpt/backend/internal/handler"
	modelsHandler "github.com/synpt/backend/internal/handler/models"
	streamHandler "github.com/synpt/backend/internal/handler/stream"
	"github.com/synpt/backend/internal/memory"
	"github.com/synpt/backend/internal/service/ai"
	"github.com/synpt/backend/internal/service/generation"
	"github.com/synpt/backend/internal/store"
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

	chatStore, err := store.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("failed to open chat database: %v", err)
	}
	defer chatStore.Close()
	log.Printf("chat database ready at %s", cfg.Storage.Path)

	mem := memory.NewService()

	// Initialize the AI service; the chat CRUD surface stays usable when
	// the local daemon is down.
	var (
		lister    modelsHandler.Lister
		generator streamHandler.Generator
	)
	aiSvc, err := ai.NewService(ctx, cfg.Ollama)
	if err != nil {
		log.Printf("warning: failed to initialize AI service: %v", err)
		log.Println("continuing without generation - check the Ollama environment variables")
	} else {
		log.Println("AI service initialized successfully")
		lister = aiSvc
		builder := ai.NewContextBuilder(mem, cfg.Context)
		generator = generation.New(chatStore, aiSvc, builder, mem)
	}

	router := handler.NewRouter(chatStore, mem, lister, generator)

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

	log.Printf("synpt backend listening on %s", addr)
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
