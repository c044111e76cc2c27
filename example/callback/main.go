package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/os-libera/xalute-mobile/pkg/xalute"
)

func main() {
	flow, err := xalute.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(batch []xalute.Outcome) error {
		for _, o := range batch {
			fmt.Printf("%s prediction=%s waveform=%s\n",
				o.RecordedAt.Format(time.RFC3339Nano),
				o.Label,
				o.WaveformPath,
			)
		}
		return nil
	}

	if err := flow.Run(ctx, xalute.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
