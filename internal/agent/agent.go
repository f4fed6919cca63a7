package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/vesaa/alertdesk/internal/config"
	"go.uber.org/zap"
)

var errNoProbes = errors.New("no host probe succeeded")

// Metric names reported by the agent.
const (
	MetricCPU  = "cpu_usage"
	MetricMem  = "mem_usage"
	MetricDisk = "disk_usage"
)

// Thresholds are usage percentages at or above which an alert is sent.
// A threshold <= 0 disables that metric.
type Thresholds struct {
	CPU  float64
	Mem  float64
	Disk float64
}

// AlertPayload is the body POSTed to /alerts/.
type AlertPayload struct {
	Hostname string `json:"hostname"`
	Metric   string `json:"metric"`
	Value    int64  `json:"value"`
	Message  string `json:"message"`
}

// Evaluate returns one alert per metric in s that breaches its threshold.
func Evaluate(s *Sample, th Thresholds) []AlertPayload {
	checks := []struct {
		metric, label string
		value, limit  float64
	}{
		{MetricCPU, "CPU usage", s.CPUUsage, th.CPU},
		{MetricMem, "memory usage", s.MemUsage, th.Mem},
		{MetricDisk, "disk usage", s.DiskUsage, th.Disk},
	}

	var out []AlertPayload
	for _, c := range checks {
		if c.limit <= 0 || c.value < c.limit {
			continue
		}
		out = append(out, AlertPayload{
			Hostname: s.Hostname,
			Metric:   c.metric,
			Value:    int64(math.Round(c.value)),
			Message:  fmt.Sprintf("%s at %.1f%% (threshold %.0f%%)", c.label, c.value, c.limit),
		})
	}
	return out
}

// Agent periodically samples the host and reports threshold breaches.
type Agent struct {
	url        string
	token      string
	interval   time.Duration
	thresholds Thresholds
	sampler    Sampler
	client     *http.Client
	log        *zap.Logger
}

// New builds an Agent from cfg.
//
// cfg.AgentServerAddr is the server address, e.g. "192.168.1.10:8000".
// cfg.AgentToken, when set, is sent as "Authorization: Bearer <token>".
func New(cfg *config.Config, sampler Sampler, log *zap.Logger) *Agent {
	interval := time.Duration(cfg.AgentInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Agent{
		url:      fmt.Sprintf("http://%s/alerts/", cfg.AgentServerAddr),
		token:    cfg.AgentToken,
		interval: interval,
		thresholds: Thresholds{
			CPU:  cfg.AgentCPU,
			Mem:  cfg.AgentMem,
			Disk: cfg.AgentDisk,
		},
		sampler: sampler,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.Named("agent"),
	}
}

// Run samples immediately and then every interval until ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	a.log.Info("agent started",
		zap.String("server", a.url),
		zap.Duration("interval", a.interval),
		zap.Float64("cpu_threshold", a.thresholds.CPU),
		zap.Float64("mem_threshold", a.thresholds.Mem),
		zap.Float64("disk_threshold", a.thresholds.Disk),
	)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		if _, err := a.Tick(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("tick failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick takes one sample and reports every breach. It returns how many alerts
// the server accepted.
func (a *Agent) Tick(ctx context.Context) (int, error) {
	s, err := a.sampler.Sample(ctx)
	if err != nil {
		return 0, fmt.Errorf("collect: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, p := range Evaluate(s, a.thresholds) {
		if err := a.post(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("report %s: %w", p.Metric, err))
			continue
		}
		sent++
		a.log.Info("alert reported", zap.String("metric", p.Metric), zap.Int64("value", p.Value))
	}
	return sent, errors.Join(errs...)
}

// post sends p as JSON with the bearer token, if any.
func (a *Agent) post(ctx context.Context, p AlertPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("server rejected token (401), check agent_token")
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}
