// Command watch polls the API and logs a one-line summary of open orders.
// It is the terminal counterpart of the dashboard's refresh loop, useful for
// keeping an eye on a kitchen screen over SSH.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tableside-pos/api/internal/client"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/refresh"
)

func main() {
	baseURL := flag.String("api", "http://localhost:8081", "API base URL")
	flag.Parse()

	cfg := config.Load()
	log := logger.New("tableside-watch")
	api := client.New(*baseURL, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := refresh.NewLoop(cfg.RefreshInterval, func(ctx context.Context) error {
		orders, err := api.ListOrders(ctx,
			enum.OrderStatusPending, enum.OrderStatusPreparing, enum.OrderStatusReady)
		if err != nil {
			return err
		}

		counts := map[string]int{}
		for _, o := range orders {
			counts[o.Status]++
		}
		log.Info("open orders",
			"total", len(orders),
			"pending", counts[enum.OrderStatusPending],
			"preparing", counts[enum.OrderStatusPreparing],
			"ready", counts[enum.OrderStatusReady],
		)
		return nil
	}, log)

	log.Info("watching", "api", *baseURL, "interval", cfg.RefreshInterval.String())
	loop.Run(ctx)
}
