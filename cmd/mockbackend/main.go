package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-sync/e2e/sync/mockserver"
	"github.com/urfave/cli/v3"
)

// serveAction runs the mock backend until interrupted.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	config := mockserver.DefaultServerConfig()
	config.Token = cmd.String("token")
	config.ServerVersion = cmd.String("server-version")
	config.StreamInterval = cmd.Duration("interval")
	config.InitialPrice = cmd.Float("price")
	config.Seed = int64(cmd.Int("seed"))

	if instruments := cmd.StringSlice("instrument"); len(instruments) > 0 {
		config.Instruments = instruments
	}

	server := mockserver.NewMockBackendServer(config)
	if err := server.Start(cmd.String("addr")); err != nil {
		return fmt.Errorf("failed to start mock backend: %w", err)
	}

	if msg := cmd.String("ticker-start-error"); msg != "" {
		server.SetTickerStartError(msg)
	}

	if cmd.Bool("stream") {
		server.StartStreaming()
	}

	log.Printf("Mock backend listening on %s (push: %s)", server.BaseURL(), server.WebSocketURL())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("Shutting down mock backend...")

	return server.Stop()
}

func main() {
	cmd := &cli.Command{
		Name:  "mockbackend",
		Usage: "Run a mock trading backend for the live dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "127.0.0.1:8080",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Only accept this bearer token; any token is accepted when empty",
			},
			&cli.StringFlag{
				Name:  "server-version",
				Usage: "API version announced in user data and the hello event",
			},
			&cli.StringSliceFlag{
				Name:  "instrument",
				Usage: "Instrument to quote (repeatable); defaults to the two indices",
			},
			&cli.FloatFlag{
				Name:  "price",
				Usage: "Initial price of every instrument",
				Value: 22000,
			},
			&cli.BoolFlag{
				Name:  "stream",
				Usage: "Stream generated ticks over the push channel",
				Value: true,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Interval between streamed ticks",
				Value: time.Second,
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Seed of the tick generator",
				Value: 42,
			},
			&cli.StringFlag{
				Name:  "ticker-start-error",
				Usage: "Answer ticker start requests with this domain error",
			},
		},
		Action: serveAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
