// cmd/portal/main.go
//
// Entry point for the customer portal server. All lifecycle wiring lives in
// internal/app/bootstrap; WAFFLE drives config loading, DB connection,
// schema setup, the HTTP server, and graceful shutdown from the Hooks.
package main

import (
	"context"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
