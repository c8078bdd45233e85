package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pillbox/medication-adherence-tracker/internal/config"
	"github.com/pillbox/medication-adherence-tracker/internal/db"
	"github.com/pillbox/medication-adherence-tracker/internal/tracker"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	MarkRatio     float64
	CreateRatio   float64
	ReadRatio     float64
	ScheduleLimit int
	PostgresDSN   string
}

type DataPool struct {
	mu        sync.RWMutex
	schedules []uuid.UUID // pending schedule entry ids
	courses   []uuid.UUID
}

func (dp *DataPool) AddCourse(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.courses = append(dp.courses, id)
}

func (dp *DataPool) RandomCourse(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.courses) == 0 {
		return uuid.Nil, false
	}
	return dp.courses[rng.Intn(len(dp.courses))], true
}

func (dp *DataPool) RandomSchedule(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.schedules) == 0 {
		return uuid.Nil, false
	}
	return dp.schedules[rng.Intn(len(dp.schedules))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	MarkDose     OperationMetrics
	CreateCourse OperationMetrics
	ReadToday    OperationMetrics
	ReadProgress OperationMetrics
	ReadOverview OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d mark=%.2f create=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.MarkRatio, cfg.CreateRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d pending schedules, %d courses", len(dataPool.schedules), len(dataPool.courses))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:    getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		MarkRatio:     getFloat("SIM_MARK_RATIO", 0.5),
		CreateRatio:   getFloat("SIM_CREATE_RATIO", 0.1),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.4),
		ScheduleLimit: getInt("SIM_SCHEDULE_LIMIT", 2000),
		PostgresDSN:   baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.MarkRatio + cfg.CreateRatio + cfg.ReadRatio
	if total > 0 {
		cfg.MarkRatio /= total
		cfg.CreateRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT id FROM daily_schedules
		WHERE status = 'pending'
		LIMIT $1
	`, cfg.ScheduleLimit)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.schedules = append(dataPool.schedules, id)
	}

	rows, err = pool.Query(ctx, `SELECT id FROM pill_courses LIMIT 1000`)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.courses = append(dataPool.courses, id)
	}

	if len(dataPool.schedules) == 0 {
		return nil, fmt.Errorf("no pending schedules loaded, run the seeder first")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.MarkRatio:
				s.doMarkDose(ctx, rng)
			case r < s.config.MarkRatio+s.config.CreateRatio:
				s.doCreateCourse(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doReadToday(ctx)
				case 1:
					s.doReadProgress(ctx, rng)
				case 2:
					s.doReadOverview(ctx)
				}
			}
		}
	}
}

func (s *Simulator) doMarkDose(ctx context.Context, rng *rand.Rand) {
	scheduleID, ok := s.pool.RandomSchedule(rng)
	if !ok {
		return
	}

	status := string(tracker.StatusTaken)
	if rng.Float64() < 0.2 {
		status = string(tracker.StatusMissed)
	}

	start := time.Now()

	body, _ := json.Marshal(map[string]string{"status": status})
	req, _ := http.NewRequestWithContext(ctx, "PUT",
		fmt.Sprintf("%s/schedules/%s", s.config.APIBaseURL, scheduleID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.MarkDose.Record(latency, success)
}

func (s *Simulator) doCreateCourse(ctx context.Context, rng *rand.Rand) {
	start := time.Now()

	reqBody := map[string]any{
		"course_name":   fmt.Sprintf("sim-course-%d", rng.Intn(100000)),
		"pill_name":     fmt.Sprintf("sim-pill-%d", rng.Intn(100000)),
		"time_slots":    []string{"Morning", "Night"},
		"start_date":    tracker.Today().String(),
		"duration_days": rng.Intn(14) + 1,
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/courses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
			var courseResp struct {
				ID uuid.UUID `json:"id"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				json.Unmarshal(bodyBytes, &courseResp)
				if courseResp.ID != uuid.Nil {
					s.pool.AddCourse(courseResp.ID)
				}
			}
		}
	}

	s.metrics.CreateCourse.Record(latency, success)
}

func (s *Simulator) doReadToday(ctx context.Context) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET", s.config.APIBaseURL+"/schedules/today", nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadToday.Record(latency, success)
}

func (s *Simulator) doReadProgress(ctx context.Context, rng *rand.Rand) {
	courseID, ok := s.pool.RandomCourse(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/courses/%s/progress", s.config.APIBaseURL, courseID), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadProgress.Record(latency, success)
}

func (s *Simulator) doReadOverview(ctx context.Context) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET", s.config.APIBaseURL+"/analytics/overview", nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadOverview.Record(latency, success)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Mark dose", &s.metrics.MarkDose)
	printOperationReport("Create course", &s.metrics.CreateCourse)
	printOperationReport("Read today", &s.metrics.ReadToday)
	printOperationReport("Read progress", &s.metrics.ReadProgress)
	printOperationReport("Read overview", &s.metrics.ReadOverview)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	errs := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if errs > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errs, float64(errs)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
