// Command alfred-smol is the Gemini backed Alfred agent.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/m-mizutani/alfred/internal/backend"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &backend.App{
		Name:   "smol",
		NewLLM: backend.NewGemini,
	}
	code := app.Run(ctx)
	stop()
	os.Exit(code)
}
