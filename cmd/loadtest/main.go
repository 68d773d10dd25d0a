package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const idempotencyHeader = "Idempotency-Key"

type config struct {
	baseURL     string
	total       int
	concurrency int
	timeout     time.Duration
	productID   string
	size        string
	qty         int
	memberID    string
	payment     string
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type report struct {
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	Total           int64            `json:"total"`
	Success         int64            `json:"success"`
	Failed          int64            `json:"failed"`
	ErrorRate       float64          `json:"error_rate"`
	RPS             float64          `json:"rps"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	LatencyMs       latencySummary   `json:"latency_ms"`
}

type collector struct {
	mu        sync.Mutex
	codes     map[string]int64
	latencies []float64
}

func newCollector() *collector {
	return &collector{codes: make(map[string]int64)}
}

func (c *collector) record(status int, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.codes[fmt.Sprintf("%d", status)]++
	c.latencies = append(c.latencies, float64(latency.Microseconds())/1000.0)
}

func main() {
	cfg := parseFlags()

	client := &http.Client{Timeout: cfg.timeout}
	stats := newCollector()

	var (
		success int64
		failed  int64
	)

	jobs := make(chan int)
	startedAt := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				status, err := placeOrder(client, cfg, stats)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					stats.record(0, 0)
					continue
				}
				if status == http.StatusCreated {
					atomic.AddInt64(&success, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	for i := 0; i < cfg.total; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(startedAt)
	result := buildReport(startedAt, elapsed, success, failed, stats)
	printReport(result, cfg.outputPath)
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.baseURL, "addr", "http://localhost:8080", "base URL of the POS HTTP API")
	flag.IntVar(&cfg.total, "total", 100, "total number of orders to place")
	flag.IntVar(&cfg.concurrency, "concurrency", 8, "number of concurrent workers")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.StringVar(&cfg.productID, "product", "TS001", "product id for order lines")
	flag.StringVar(&cfg.size, "size", "M", "size for order lines")
	flag.IntVar(&cfg.qty, "qty", 1, "qty per order line")
	flag.StringVar(&cfg.memberID, "member", "", "member id (empty for non-member orders)")
	flag.StringVar(&cfg.payment, "payment", "cash", "payment method")
	flag.StringVar(&cfg.outputPath, "output", "", "path to write JSON report (default: stdout only)")
	flag.Parse()

	if cfg.total <= 0 || cfg.concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "total and concurrency must be positive")
		os.Exit(1)
	}
	return cfg
}

func placeOrder(client *http.Client, cfg config, stats *collector) (int, error) {
	body := map[string]any{
		"member_id":      cfg.memberID,
		"customer_ref":   "loadtest",
		"payment_method": cfg.payment,
		"lines": []map[string]any{
			{"product_id": cfg.productID, "size": cfg.size, "qty": cfg.qty},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, uuid.NewString())

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	stats.record(resp.StatusCode, latency)
	return resp.StatusCode, nil
}

func buildReport(startedAt time.Time, elapsed time.Duration, success, failed int64, stats *collector) report {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	total := success + failed
	result := report{
		StartedAt:       startedAt,
		DurationSeconds: elapsed.Seconds(),
		Total:           total,
		Success:         success,
		Failed:          failed,
		StatusCodes:     stats.codes,
		LatencyMs:       summarize(stats.latencies),
	}
	if total > 0 {
		result.ErrorRate = float64(failed) / float64(total)
		result.RPS = float64(total) / elapsed.Seconds()
	}
	return result
}

func summarize(latencies []float64) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}

	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100.0*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func printReport(result report, outputPath string) {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(encoded))

	if outputPath != "" {
		if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write report to %s: %v\n", outputPath, err)
			os.Exit(1)
		}
	}
}
