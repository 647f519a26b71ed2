package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:8095"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numUsers     = 100
	numSessions  = 5
)

var messages = []string{
	"What should I see in this neighborhood?",
	"Where can I get decent coffee around here?",
	"Tell me about the history of this square",
	"Is the old town walkable from the station?",
	"Any quiet spots to watch the sunset?",
}

var responses = []string{
	"The covered market two blocks north is worth a wander before noon.",
	"Locals swear by the roastery on the corner, it opens at seven.",
	"The square dates back to the fifteenth century and hosted grain fairs.",
	"It is an easy twenty minute walk along the river promenade.",
	"The fortress wall catches the last light and rarely gets crowded.",
}

var places = []string{"Old Town Square", "River Promenade", "Fortress Hill", "Covered Market", "Harbor Steps"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== Wayfarer Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Users: %d | Sessions per user: %d\n\n", numUsers, numSessions)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: Seed journals with conversation turns
	fmt.Println("\n--- Phase 1: Seeding turns (POST /turn) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doPostTurn(rng)
	})

	// Let background diary tasks drain
	fmt.Println("\nWaiting 2s for background tasks...")
	time.Sleep(2 * time.Second)

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (60% POST, 40% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doPostTurn(rng)
		case r < 0.75:
			return doGetJournal(rng)
		case r < 0.85:
			return doGetLocations(rng)
		case r < 0.95:
			return doGetDay(rng)
		default:
			return doGetSessions(rng)
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% POST, 90% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doPostTurn(rng)
		case r < 0.45:
			return doGetJournal(rng)
		case r < 0.65:
			return doGetLocations(rng)
		case r < 0.85:
			return doGetDay(rng)
		default:
			return doGetSessions(rng)
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func userID(rng *rand.Rand) string {
	return fmt.Sprintf("user_%d", rng.Intn(numUsers)+1)
}

func doPostTurn(rng *rand.Rand) result {
	body := map[string]interface{}{
		"message":    messages[rng.Intn(len(messages))],
		"response":   responses[rng.Intn(len(responses))],
		"session_id": fmt.Sprintf("s_%d", rng.Intn(numSessions)+1),
	}
	if rng.Float64() < 0.4 {
		body["location_name"] = places[rng.Intn(len(places))]
		body["latitude"] = 40.0 + rng.Float64()
		body["longitude"] = -3.0 + rng.Float64()
	}

	data, _ := json.Marshal(body)
	url := fmt.Sprintf("%s/turn?u=%s", baseURL, userID(rng))
	start := time.Now()
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /turn", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /turn", resp.StatusCode, lat, resp.StatusCode != 201}
}

func doGetJournal(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/journal?u=%s", baseURL, userID(rng))
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /journal", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /journal", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetLocations(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/locations?u=%s", baseURL, userID(rng))
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /locations", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /locations", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetDay(rng *rand.Rand) result {
	date := time.Now().UTC().Format("2006-01-02")
	url := fmt.Sprintf("%s/journal/day?u=%s&date=%s", baseURL, userID(rng), date)
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /journal/day", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /journal/day", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetSessions(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/sessions?u=%s", baseURL, userID(rng))
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /sessions", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /sessions", resp.StatusCode, lat, resp.StatusCode != 200}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
