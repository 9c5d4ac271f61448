package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/biometriqa/harness/internal/mockapi"
)

func main() {
	addr := flag.String("addr", ":8089", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	srv := mockapi.New()

	logger.Info("mock identity API listening", slog.String("addr", *addr))
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
