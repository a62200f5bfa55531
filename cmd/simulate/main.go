package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/caarlos0/env/v6"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-operations/internal/appointment"
	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/logging"
	"github.com/hackgods/clinic-operations/internal/visit"
)

type SimConfig struct {
	APIBaseURL   string        `env:"SIM_API_BASE_URL" envDefault:"http://localhost:8080"`
	Duration     time.Duration `env:"SIM_DURATION" envDefault:"30s"`
	Workers      int           `env:"SIM_WORKERS" envDefault:"10"`
	BookingRatio float64       `env:"SIM_BOOKING_RATIO" envDefault:"0.4"`
	CancelRatio  float64       `env:"SIM_CANCEL_RATIO" envDefault:"0.1"`
	VisitRatio   float64       `env:"SIM_VISIT_RATIO" envDefault:"0.2"`
	ReadRatio    float64       `env:"SIM_READ_RATIO" envDefault:"0.3"`
	Days         int           `env:"SIM_DAYS" envDefault:"3"`
	Patients     int           `env:"SIM_PATIENTS" envDefault:"50"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

// DataPool holds what workers share: candidate days and names, and the
// ids of appointments created so far.
type DataPool struct {
	Days         []clinic.Date
	Names        []visit.PatientName
	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

// TakeAppointment removes and returns a random known appointment.
func (dp *DataPool) TakeAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	idx := rng.Intn(len(dp.appointments))
	id := dp.appointments[idx]
	dp.appointments[idx] = dp.appointments[len(dp.appointments)-1]
	dp.appointments = dp.appointments[:len(dp.appointments)-1]
	return id, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

// Record files one call. Conflict covers the expected losing outcomes:
// 409 on a contended slot, 404 on an already removed entry.
func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
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
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking      OperationMetrics
	Cancel       OperationMetrics
	CheckIn      OperationMetrics
	RemoveVisit  OperationMetrics
	Availability OperationMetrics
	TodayQueue   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	logger  zerolog.Logger
	metrics Metrics
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		boot := logging.New("", "info")
		boot.Fatal().Err(err).Msg("invalid config")
	}

	logger := logging.New("dev", cfg.LogLevel)
	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("cancel", cfg.CancelRatio).
		Float64("visit", cfg.VisitRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		pool:   newDataPool(cfg),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() (SimConfig, error) {
	_ = godotenv.Load()

	var cfg SimConfig
	if err := env.Parse(&cfg); err != nil {
		return SimConfig{}, err
	}

	if cfg.Workers <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 || cfg.Patients <= 0 {
		return SimConfig{}, fmt.Errorf("SIM_DAYS and SIM_PATIENTS must be > 0")
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.CancelRatio + cfg.VisitRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CancelRatio /= total
		cfg.VisitRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg, nil
}

// newDataPool keeps the day range small so workers keep colliding on the
// same slots.
func newDataPool(cfg SimConfig) *DataPool {
	dp := &DataPool{}

	start := clinic.DateOf(time.Now()).AddDays(1)
	for i := 0; i < cfg.Days; i++ {
		dp.Days = append(dp.Days, start.AddDays(i))
	}
	for i := 0; i < cfg.Patients; i++ {
		dp.Names = append(dp.Names, visit.PatientName{Nom: gofakeit.LastName(), Prenom: gofakeit.FirstName()})
	}
	return dp
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	booking := s.config.BookingRatio
	cancel := booking + s.config.CancelRatio
	visits := cancel + s.config.VisitRatio

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < booking:
				s.doBooking(ctx, rng)
			case r < cancel:
				s.doCancel(ctx, rng)
			case r < visits:
				if rng.Intn(3) == 0 {
					s.doRemoveVisit(ctx, rng)
				} else {
					s.doCheckIn(ctx, rng)
				}
			default:
				if rng.Intn(2) == 0 {
					s.doAvailability(ctx, rng)
				} else {
					s.doTodayQueue(ctx)
				}
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	slots := appointment.Slots()
	body, _ := json.Marshal(map[string]string{
		"day":  s.pool.Days[rng.Intn(len(s.pool.Days))].String(),
		"slot": string(slots[rng.Intn(len(slots))]),
		"note": "simulated booking",
	})

	start := time.Now()
	status, respBody, err := s.send(ctx, http.MethodPost, "/appointments", body)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		switch status {
		case http.StatusCreated:
			success = true
			var apptResp struct {
				ID uuid.UUID `json:"id"`
			}
			if json.Unmarshal(respBody, &apptResp) == nil && apptResp.ID != uuid.Nil {
				s.pool.AddAppointment(apptResp.ID)
			}
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.TakeAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	status, _, err := s.send(ctx, http.MethodDelete, "/appointments/"+apptID.String(), nil)
	latency := time.Since(start)

	s.metrics.Cancel.Record(latency, err == nil && status == http.StatusOK, err == nil && status == http.StatusNotFound)
}

func (s *Simulator) doCheckIn(ctx context.Context, rng *rand.Rand) {
	name := s.pool.Names[rng.Intn(len(s.pool.Names))]
	motifs := visit.Motifs()
	body, _ := json.Marshal(map[string]string{
		"nom":    name.Nom,
		"prenom": name.Prenom,
		"motif":  string(motifs[rng.Intn(len(motifs))]),
	})

	start := time.Now()
	status, _, err := s.send(ctx, http.MethodPost, "/visits", body)
	latency := time.Since(start)

	s.metrics.CheckIn.Record(latency, err == nil && status == http.StatusCreated, false)
}

func (s *Simulator) doRemoveVisit(ctx context.Context, rng *rand.Rand) {
	name := s.pool.Names[rng.Intn(len(s.pool.Names))]
	q := url.Values{"nom": {name.Nom}, "prenom": {name.Prenom}}

	start := time.Now()
	status, _, err := s.send(ctx, http.MethodDelete, "/visits?"+q.Encode(), nil)
	latency := time.Since(start)

	s.metrics.RemoveVisit.Record(latency, err == nil && status == http.StatusOK, err == nil && status == http.StatusNotFound)
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	day := s.pool.Days[rng.Intn(len(s.pool.Days))]

	start := time.Now()
	status, _, err := s.send(ctx, http.MethodGet, "/appointments/"+day.String()+"/availability", nil)
	latency := time.Since(start)

	s.metrics.Availability.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doTodayQueue(ctx context.Context) {
	start := time.Now()
	status, _, err := s.send(ctx, http.MethodGet, "/visits/today", nil)
	latency := time.Since(start)

	s.metrics.TodayQueue.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) send(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody, err
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Days: %d, slots per day: %d\n", len(s.pool.Days), len(appointment.Slots()))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Check in", &s.metrics.CheckIn)
	printOperationReport("Remove visit", &s.metrics.RemoveVisit)
	printOperationReport("Availability", &s.metrics.Availability)
	printOperationReport("Today's queue", &s.metrics.TodayQueue)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}
