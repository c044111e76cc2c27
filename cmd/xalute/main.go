package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/os-libera/xalute-mobile"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "ingest":
		err = ingestCommand(os.Args[2:])
	case "outcomes":
		err = outcomesCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("xalute %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := xalute.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func ingestCommand(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	asJSON := fs.Bool("json", false, "Print outcomes as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer rt.Shutdown(context.Background())

	outcomes, err := rt.Ingest(ctx)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 && !*asJSON {
		fmt.Println("no new recordings")
		return nil
	}
	return printOutcomes(outcomes, *asJSON)
}

func outcomesCommand(args []string) error {
	fs := flag.NewFlagSet("outcomes", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	asJSON := fs.Bool("json", false, "Print outcomes as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := openRuntime(ctx, *cfgPath)
	if err != nil {
		return err
	}
	defer rt.Shutdown(ctx)

	outcomes, err := rt.Outcomes(ctx)
	if err != nil {
		return err
	}
	return printOutcomes(outcomes, *asJSON)
}

func openRuntime(ctx context.Context, path string) (*xalute.Runtime, error) {
	cfg, err := xalute.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return xalute.NewRuntime(ctx, cfg)
}

func printOutcomes(outcomes []xalute.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if outcomes == nil {
			outcomes = []xalute.Outcome{}
		}
		return enc.Encode(outcomes)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tLABEL\tWAVEFORM\tPREDICTION")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			o.RecordedAt.UTC().Format(time.RFC3339),
			o.Label,
			orDash(o.WaveformPath),
			orDash(o.PredictionPath),
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := xalute.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsTargets = []string{
	"xalute_recordings_processed_total",
	"xalute_outcomes_abnormal_total",
	"xalute_outcomes_unknown_total",
	"xalute_outcomes_stored",
	"xalute_watermark_unix_seconds",
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values := make(map[string]float64, len(statsTargets))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsTargets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	watermark := "-"
	if v := values["xalute_watermark_unix_seconds"]; v > 0 {
		watermark = time.Unix(int64(v), 0).UTC().Format(time.RFC3339)
	}
	fmt.Printf("[%s] processed=%.0f abnormal=%.0f unknown=%.0f stored=%.0f watermark=%s\n",
		time.Now().Format(time.RFC3339),
		values["xalute_recordings_processed_total"],
		values["xalute_outcomes_abnormal_total"],
		values["xalute_outcomes_unknown_total"],
		values["xalute_outcomes_stored"],
		watermark,
	)
	return nil
}

func printUsage() {
	fmt.Printf(`xalute ECG ingestion

Usage:
  xalute <command> [flags]

Commands:
  run        Start the runtime (HTTP API, metrics, optional polling)
  ingest     Run a single ingestion batch and print the new outcomes
  outcomes   List persisted outcomes with their artifact files
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  xalute run -config ./data/config.yaml
  xalute ingest -config ./data/config.yaml -json
  xalute outcomes -config ./data/config.yaml
  xalute stats -url http://localhost:9100/metrics -interval 1s
`)
}
