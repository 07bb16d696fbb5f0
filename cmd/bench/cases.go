// README: Bench cases: infra connectivity, migration, fare estimate, search, and the concurrent booking race.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/devxankit/chalo-sawari-sub001/internal/modules/pricing"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

// Indore and Ujjain, roughly 51 km apart.
var (
	benchPickup      = map[string]any{"lat": 22.7196, "lng": 75.8577, "address": "Rajwada, Indore"}
	benchDestination = map[string]any{"lat": 23.1765, "lng": 75.7885, "address": "Mahakal, Ujjain"}
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusFail, Note: "db not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: statusFail, Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: tablesExist},
		{Name: "Seed: bench vehicle and tariffs", Run: seed},

		httpCase("API: health", http.MethodGet, base+"/health", "", nil, http.StatusOK),
		httpCase("API: missing token -> 401", http.MethodPost, base+"/api/fares/estimate", "", map[string]any{}, http.StatusUnauthorized),
		riderCase("Fare: estimate car cash", http.MethodPost, base+"/api/fares/estimate", map[string]any{
			"category": "car", "vehicle_type": "sedan", "payment_method": "cash",
			"pickup": benchPickup, "destination": benchDestination,
		}, http.StatusOK),
		riderCase("Fare: invalid coordinates -> 400", http.MethodPost, base+"/api/fares/estimate", map[string]any{
			"category": "car", "vehicle_type": "sedan",
			"pickup": map[string]any{"lat": 123.0, "lng": 456.0}, "destination": benchDestination,
		}, http.StatusBadRequest),
		riderCase("Fare: unknown vehicle type -> 404", http.MethodPost, base+"/api/fares/estimate", map[string]any{
			"category": "car", "vehicle_type": "limousine",
			"pickup": benchPickup, "destination": benchDestination,
		}, http.StatusNotFound),
		riderCase("Search: by date", http.MethodPost, base+"/api/vehicles/search", map[string]any{
			"date": r.cfg.BookingDate, "category": "car", "pickup": benchPickup, "destination": benchDestination,
		}, http.StatusOK),
		riderCase("Admin: rider on admin route -> 403", http.MethodPost, base+"/api/admin/bookings/bench/refund", nil, http.StatusForbidden),
		riderCase("Booking: missing fields -> 400", http.MethodPost, base+"/api/bookings", map[string]any{}, http.StatusBadRequest),

		{Name: "Concurrency: one booking per vehicle", Run: bookingRace},

		{Name: "Perf: fare estimate throughput", Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.RiderToken == "" {
				return Result{Status: statusSkip, Note: "rider token not set"}
			}
			return perfLoad(ctx, r, base+"/api/fares/estimate", map[string]any{
				"category": "car", "vehicle_type": "sedan",
				"pickup": benchPickup, "destination": benchDestination,
			})
		}},
	}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}
	return Result{Status: statusPass}
}

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("%d tables", len(tables))}
}

// seed resets the bench vehicle so the race case starts from an unclaimed vehicle.
func seed(ctx context.Context, r *Runner) Result {
	if !r.cfg.Seed {
		return Result{Status: statusSkip, Note: "seed=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO drivers (id, name, is_active, is_online) VALUES ($1, 'Bench Driver', TRUE, TRUE)
		ON CONFLICT (id) DO NOTHING`, r.cfg.DriverUID); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO vehicles (id, driver_id, category, vehicle_type, seats, is_active, is_approved)
		VALUES ($1, $2, 'car', 'sedan', 4, TRUE, TRUE)
		ON CONFLICT (id) DO UPDATE SET current_booking = NULL, is_available = TRUE`,
		r.cfg.VehicleID, r.cfg.DriverUID); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	tariffs := pricing.NewStore(r.db)
	for _, trip := range []pricing.TripType{pricing.TripOneWay, pricing.TripReturn} {
		err := tariffs.Upsert(ctx, pricing.Tariff{
			Key:   pricing.Key{Category: pricing.CategoryCar, VehicleType: "sedan", TripType: trip},
			Tiers: []pricing.Tier{{ThresholdKm: 50, RatePerKm: 12}, {ThresholdKm: 100, RatePerKm: 10}, {ThresholdKm: 150, RatePerKm: 8}},
		})
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}
	return Result{Status: statusPass}
}

func httpCase(name, method, url, token string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			start := time.Now()
			status, _, err := r.call(ctx, method, url, token, body)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			res := Result{Status: statusFail, Latency: time.Since(start), Note: fmt.Sprintf("status=%d", status)}
			if status == want {
				res.Status = statusPass
			}
			return res
		},
	}
}

func riderCase(name, method, url string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.RiderToken == "" {
				return Result{Status: statusSkip, Note: "rider token not set"}
			}
			return httpCase(name, method, url, r.cfg.RiderToken, body, want).Run(ctx, r)
		},
	}
}

func (r *Runner) call(ctx context.Context, method, url, token string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

// bookingRace fires concurrent creates at one vehicle; exactly one may win and the rest must see 409.
// The winner is cancelled afterwards so the vehicle is free for the next run.
func bookingRace(ctx context.Context, r *Runner) Result {
	if r.cfg.RiderToken == "" {
		return Result{Status: statusSkip, Note: "rider token not set"}
	}
	payload := map[string]any{
		"vehicle_id":     r.cfg.VehicleID,
		"pickup":         benchPickup,
		"destination":    benchDestination,
		"date":           r.cfg.BookingDate,
		"time":           "09:30",
		"passengers":     2,
		"payment_method": "upi",
	}
	url := r.cfg.BaseURL + "/api/bookings"

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		created  []string
		conflict int
		other    []int
	)
	start := make(chan struct{})
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			status, body, err := r.call(ctx, http.MethodPost, url, r.cfg.RiderToken, payload)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				other = append(other, 0)
			case status == http.StatusCreated:
				var b struct {
					ID string `json:"id"`
				}
				_ = json.Unmarshal(body, &b)
				created = append(created, b.ID)
			case status == http.StatusConflict:
				conflict++
			default:
				other = append(other, status)
			}
		}()
	}
	began := time.Now()
	close(start)
	wg.Wait()
	latency := time.Since(began)

	for _, id := range created {
		_, _, _ = r.call(ctx, http.MethodPost, r.cfg.BaseURL+"/api/bookings/"+id+"/cancel", r.cfg.RiderToken, map[string]any{"reason": "bench cleanup"})
	}

	note := fmt.Sprintf("created=%d conflict=%d other=%v", len(created), conflict, other)
	if len(created) == 1 && conflict == r.cfg.Concurrency-1 {
		return Result{Status: statusPass, Latency: latency, Note: note}
	}
	return Result{Status: statusFail, Latency: latency, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count, errCount int64
		mu              sync.Mutex
		wg              sync.WaitGroup
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				status, _, err := r.call(ctx, http.MethodPost, url, r.cfg.RiderToken, payload)
				mu.Lock()
				if err != nil || status >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
