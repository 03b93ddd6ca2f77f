// Load generator for the payments API. Issues concurrent transfers
// (or deposits) between seeded accounts and reports throughput and
// failure counts.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	targetURL   string
	apiKey      string
	accountsRaw string
	concurrency int
	duration    time.Duration
	amount      string
)

// Metrics
var (
	totalRequests uint64
	successCount  uint64
	conflictCount uint64
	limitedCount  uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API base URL")
	flag.StringVar(&apiKey, "api-key", "", "raw API key (required)")
	flag.StringVar(&accountsRaw, "accounts", "", "comma-separated account UUIDs to transfer between (at least 2)")
	flag.IntVar(&concurrency, "workers", 10, "number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "test duration")
	flag.StringVar(&amount, "amount", "1.00", "amount per transfer")
}

func main() {
	flag.Parse()
	if apiKey == "" {
		log.Fatal("-api-key is required")
	}
	accounts := strings.Split(accountsRaw, ",")
	if len(accounts) < 2 {
		log.Fatal("-accounts needs at least two UUIDs")
	}

	log.Printf("starting benchmark: workers=%d duration=%s accounts=%d", concurrency, duration, len(accounts))

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, accounts)
	}
	wg.Wait()

	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time, accounts []string) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		from := accounts[rand.Intn(len(accounts))]
		to := accounts[rand.Intn(len(accounts))]
		for from == to {
			to = accounts[rand.Intn(len(accounts))]
		}

		key := fmt.Sprintf("bench-%d", time.Now().UnixNano())
		payload := map[string]any{
			"from_account_id": from,
			"to_account_id":   to,
			"amount":          amount,
			"idempotency_key": key,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest(http.MethodPost, targetURL+"/transactions/transfer", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", apiKey)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusOK:
			atomic.AddUint64(&successCount, 1)
		case http.StatusConflict:
			atomic.AddUint64(&conflictCount, 1)
		case http.StatusTooManyRequests:
			atomic.AddUint64(&limitedCount, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	results := map[string]any{
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_tps": float64(total) / d.Seconds(),
		"success":        atomic.LoadUint64(&successCount),
		"conflicts":      atomic.LoadUint64(&conflictCount),
		"rate_limited":   atomic.LoadUint64(&limitedCount),
		"errors":         atomic.LoadUint64(&failOther),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)
}
