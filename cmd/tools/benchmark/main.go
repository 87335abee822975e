// Command benchmark drives a running climatix server with sensor uploads and
// analytics reads and reports latency percentiles.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// BenchmarkConfig holds benchmark configuration
type BenchmarkConfig struct {
	BaseURL      string
	NumDevices   int
	Duration     time.Duration
	WriteWorkers int
	ReadWorkers  int
	BatchSize    int
	ReadInterval time.Duration
	Endpoint     string // analytics endpoint hit by readers
	Step         time.Duration
	HTTPClient   *http.Client
}

// opStats collects latencies of one operation kind
type opStats struct {
	mu         sync.Mutex
	latencies  []float64
	success    int64
	errors     int64
	firstError string
}

func (s *opStats) record(start time.Time, n int64, err error) {
	latency := time.Since(start).Seconds() * 1000

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencies = append(s.latencies, latency)
	if err != nil {
		s.errors++
		if s.firstError == "" {
			s.firstError = err.Error()
		}
		return
	}
	atomic.AddInt64(&s.success, n)
}

// Result represents benchmark results
type Result struct {
	Operation  string
	SuccessOps int64
	ErrorOps   int64
	Throughput float64 // ops/sec
	AvgLatency float64 // ms
	P50Latency float64 // ms
	P95Latency float64 // ms
	P99Latency float64 // ms
	MaxLatency float64 // ms
	ErrorMsg   string
}

func main() {
	cfg := BenchmarkConfig{}
	flag.StringVar(&cfg.BaseURL, "url", "http://127.0.0.1:5000", "Base URL of the API")
	flag.IntVar(&cfg.NumDevices, "devices", 20, "Number of simulated devices")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "Benchmark duration")
	flag.IntVar(&cfg.WriteWorkers, "write-workers", 4, "Concurrent upload workers")
	flag.IntVar(&cfg.ReadWorkers, "read-workers", 2, "Concurrent analytics readers")
	flag.IntVar(&cfg.BatchSize, "batch-size", 60, "Rows per sensor_array upload")
	flag.DurationVar(&cfg.ReadInterval, "read-interval", 50*time.Millisecond, "Pause between reads per worker")
	flag.StringVar(&cfg.Endpoint, "endpoint", "analytics/summary", "Analytics path under /api/device/:id/")
	flag.DurationVar(&cfg.Step, "step", time.Minute, "Simulated sampling interval")
	flag.Parse()

	cfg.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	fmt.Printf("=== Climatix Benchmark ===\n")
	fmt.Printf("  URL: %s  devices: %d  duration: %s\n", cfg.BaseURL, cfg.NumDevices, cfg.Duration)
	fmt.Printf("  writers: %d x %d rows  readers: %d on %s\n\n",
		cfg.WriteWorkers, cfg.BatchSize, cfg.ReadWorkers, cfg.Endpoint)

	writes, reads := run(cfg)

	fmt.Printf("\n=== Results ===\n\n")
	for _, r := range []Result{result("Write rows", writes, cfg.Duration), result("Analytics reads", reads, cfg.Duration)} {
		display(os.Stdout, r)
		fmt.Println()
	}
}

func run(cfg BenchmarkConfig) (*opStats, *opStats) {
	writes, reads := &opStats{}, &opStats{}
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < cfg.WriteWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			writeWorker(id, cfg, writes, stop)
		}(i)
	}
	for i := 0; i < cfg.ReadWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			readWorker(id, cfg, reads, stop)
		}(i)
	}

	time.Sleep(cfg.Duration)
	close(stop)
	wg.Wait()
	return writes, reads
}

func deviceName(i int) string {
	return fmt.Sprintf("bench-%04d", i)
}

// writeWorker uploads sinusoidal readings, advancing simulated time per batch
func writeWorker(id int, cfg BenchmarkConfig, stats *opStats, stop <-chan struct{}) {
	rng := rand.New(rand.NewSource(int64(id)))
	device := id % cfg.NumDevices
	clock := time.Now().Add(-24 * time.Hour)

	for {
		select {
		case <-stop:
			return
		default:
		}

		rows := make([][]interface{}, cfg.BatchSize)
		for i := range rows {
			clock = clock.Add(cfg.Step)
			phase := float64(clock.Hour()) / 24 * 2 * math.Pi
			rows[i] = []interface{}{
				clock.Unix(),
				20 + 3*math.Sin(phase) + rng.NormFloat64()*0.3,
				55 - 5*math.Sin(phase) + rng.NormFloat64(),
				math.Max(0, 400*math.Sin(phase)+rng.NormFloat64()*20),
			}
		}

		body := map[string]interface{}{
			"device_id": deviceName(device),
			"count":     len(rows),
			"data":      rows,
		}
		start := time.Now()
		err := request(cfg, http.MethodPost, cfg.BaseURL+"/api/sensor_array", body)
		stats.record(start, int64(len(rows)), err)

		device = (device + cfg.WriteWorkers) % cfg.NumDevices
	}
}

func readWorker(id int, cfg BenchmarkConfig, stats *opStats, stop <-chan struct{}) {
	ticker := time.NewTicker(cfg.ReadInterval)
	defer ticker.Stop()

	device := id
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			url := fmt.Sprintf("%s/api/device/%s/%s", cfg.BaseURL, deviceName(device%cfg.NumDevices), cfg.Endpoint)
			start := time.Now()
			err := request(cfg, http.MethodGet, url, nil)
			stats.record(start, 1, err)
			device++
		}
	}
}

func request(cfg BenchmarkConfig, method, url string, data interface{}) error {
	var body io.Reader
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	// too little data yet is expected early in a run
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func result(op string, s *opStats, duration time.Duration) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Result{
		Operation:  op,
		SuccessOps: s.success,
		ErrorOps:   s.errors,
		Throughput: float64(s.success) / duration.Seconds(),
		ErrorMsg:   s.firstError,
	}
	if len(s.latencies) == 0 {
		return r
	}

	sort.Float64s(s.latencies)
	var sum float64
	for _, l := range s.latencies {
		sum += l
	}
	r.AvgLatency = sum / float64(len(s.latencies))
	r.P50Latency = percentile(s.latencies, 50)
	r.P95Latency = percentile(s.latencies, 95)
	r.P99Latency = percentile(s.latencies, 99)
	r.MaxLatency = s.latencies[len(s.latencies)-1]
	return r
}

func percentile(sorted []float64, p float64) float64 {
	index := int(math.Ceil(float64(len(sorted)) * p / 100.0))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

func display(w io.Writer, r Result) {
	_, _ = fmt.Fprintf(w, "=== %s ===\n", r.Operation)
	_, _ = fmt.Fprintf(w, "Success:     %d\n", r.SuccessOps)
	_, _ = fmt.Fprintf(w, "Errors:      %d\n", r.ErrorOps)
	_, _ = fmt.Fprintf(w, "Throughput:  %.2f /sec\n", r.Throughput)
	if r.ErrorMsg != "" {
		_, _ = fmt.Fprintf(w, "First error: %s\n", r.ErrorMsg)
	}
	_, _ = fmt.Fprintf(w, "Latency ms:  avg %.2f  p50 %.2f  p95 %.2f  p99 %.2f  max %.2f\n",
		r.AvgLatency, r.P50Latency, r.P95Latency, r.P99Latency, r.MaxLatency)
}
