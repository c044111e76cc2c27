package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/os-libera/xalute-mobile"
)

func main() {
	flow, err := xalute.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub, batches, closeBatches := xalute.NewChannelPublisher("alerts", 32)
	defer closeBatches()

	go alertWorker(batches)

	if err := flow.Run(ctx, xalute.StreamOutPublisher(pub)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func alertWorker(batches <-chan []xalute.Outcome) {
	for batch := range batches {
		for _, o := range batch {
			if o.Label != xalute.LabelAbnormal {
				continue
			}
			fmt.Printf("[alert] abnormal ECG recorded at %s (%s)\n",
				o.RecordedAt.Format(time.RFC3339), o.PredictionPath)
		}
	}
}
