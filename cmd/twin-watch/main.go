// Twin Watch — a deployable monitor that tails twin events from a TwinHub
// backend and logs them.
//
// Configuration via environment variables:
//
//	TWINHUB_ENDPOINT_URL — WebSocket URL of the backend
//	TWINHUB_API_TOKEN    — API token for authentication
//	TWIN_WATCH_TOPIC     — topic prefix to watch (default: everything)
//
// Usage:
//
//	TWINHUB_ENDPOINT_URL=ws://localhost:8080/ws/2 \
//	TWINHUB_API_TOKEN=my-token \
//	TWIN_WATCH_TOPIC=org.acme/sensor-1/things/twin/events \
//	  go run ./cmd/twin-watch
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	twinhub "github.com/twinhub/go-sdk"
)

const clientShutdownTimeout = 5 * time.Second

func main() {
	client, err := twinhub.NewClient(twinhub.Config{
		OnStateChange: func(s twinhub.ConnectionState) {
			log.Printf("connection state: %s", s)
		},
	}, twinhub.LogErrors(log.Default()))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := client.Connect(ctx); err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	topic := os.Getenv("TWIN_WATCH_TOPIC")

	sub, err := client.Subscribe(ctx, topic, "/", func(env *twinhub.Envelope) {
		log.Printf("event %s %s value=%s", env.Topic, env.Path, env.Value)
	}, twinhub.WithSubResources())
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("watching twin events (topic prefix %q), ctrl-c to stop", topic)
	<-ctx.Done()

	cancelCtx, cancel := context.WithTimeout(context.Background(), clientShutdownTimeout)
	defer cancel()
	if err := sub.Cancel(cancelCtx); err != nil {
		log.Printf("unsubscribe: %v", err)
	}
}
