// vitals-poll 以前端的方式轮询 wisefido-vitals，用于联调
//
//	vitals-poll -url http://localhost:8000 -mode live -interval 200ms -count 50
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wisefido-vitals/common/logger"
	"wisefido-vitals/internal/client"

	"go.uber.org/zap"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "service base URL")
	mode := flag.String("mode", "", "switch mode first: live, recorded or pause")
	interval := flag.Duration("interval", 500*time.Millisecond, "poll interval")
	count := flag.Int("count", 0, "number of polls (0 = until interrupted)")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	zl, err := logger.NewLogger(*logLevel, "console", "vitals-poll")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := client.NewVitalsClient(*baseURL, 5*time.Second, zl)

	if err := switchMode(ctx, c, *mode); err != nil {
		zl.Fatal("Failed to switch mode", zap.String("mode", *mode), zap.Error(err))
	}

	connected, err := c.Status(ctx)
	if err != nil {
		zl.Fatal("Failed to get status", zap.Error(err))
	}
	fmt.Printf("sensor connected: %v\n", connected)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for n := 0; *count == 0 || n < *count; n++ {
		r, source, err := c.GetReading(ctx)
		switch {
		case err == nil:
			fmt.Printf("%-8s ecg=%d ppg_red=%d ppg_ir=%d hr=%d spo2=%d scd=%q temp=%.1f\n",
				source, r.ECG, r.PPGRed, r.PPGIR, r.HeartRate, r.SpO2, r.SkinContact, r.Temperature)
		case errors.Is(err, client.ErrCleared):
			fmt.Println("cleared")
		case errors.Is(err, client.ErrNoData):
			fmt.Println(err)
		case ctx.Err() != nil:
			return
		default:
			zl.Error("Failed to get reading", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func switchMode(ctx context.Context, c *client.VitalsClient, mode string) error {
	var (
		status string
		err    error
	)
	switch mode {
	case "":
		return nil
	case "live":
		status, err = c.EnableLive(ctx)
	case "recorded":
		status, err = c.SelectRecorded(ctx)
	case "pause":
		status, err = c.Pause(ctx)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}
	fmt.Printf("mode: %s\n", status)
	return nil
}
