package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"jobportal/internal/common"
	"jobportal/internal/domain/report"
	"jobportal/internal/export"
)

const (
	DefaultLogTail = 100
	MaxLogTail     = 1000
	pingTimeout    = 2 * time.Second
)

// CacheAdmin is the operator view of the response cache.
type CacheAdmin interface {
	Clear(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
}

type UtilityService struct {
	reports report.Repository
	cache   CacheAdmin
	logFile string
	logger  *slog.Logger
	now     func() time.Time
}

func NewUtilityService(reports report.Repository, cache CacheAdmin, logFile string, logger *slog.Logger) *UtilityService {
	return &UtilityService{
		reports: reports,
		cache:   cache,
		logFile: logFile,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type HealthReport struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
}

func (r HealthReport) Healthy() bool {
	return r.Status == "healthy"
}

// Health pings the database and the cache store. Cache failures are absorbed
// everywhere else, so this is where they become visible.
func (s *UtilityService) Health(ctx context.Context) HealthReport {
	report := HealthReport{Status: "healthy", Services: map[string]string{}, Timestamp: s.now()}
	check := func(name string, ping func(context.Context) error) {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := ping(pingCtx); err != nil {
			s.logger.Warn("health check failed", slog.String("service", name), slog.Any("err", err))
			report.Services[name] = "disconnected"
			report.Status = "unhealthy"
			return
		}
		report.Services[name] = "connected"
	}
	check("database", s.reports.Ping)
	check("cache", s.cache.Ping)
	return report
}

func (s *UtilityService) ClearCache(ctx context.Context, pattern string) (int, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = "*"
	}
	deleted, err := s.cache.Clear(ctx, pattern)
	if err != nil {
		return deleted, common.NewError(common.CodeUnavailable, "Cache is unavailable", err)
	}
	s.logger.Info("cache cleared", slog.String("pattern", pattern), slog.Int("deleted", deleted))
	return deleted, nil
}

func (s *UtilityService) Stats(ctx context.Context) (report.Stats, error) {
	return s.reports.Stats(ctx, s.now())
}

type ExportRequest struct {
	Model  string
	Format string
	Range  report.Range
}

type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (s *UtilityService) Export(ctx context.Context, req ExportRequest) (*ExportFile, error) {
	format, ok := export.ParseFormat(req.Format)
	if !ok {
		return nil, common.NewValidationError("invalid export", map[string]string{"format": "format must be json, csv, or xlsx"})
	}
	if !req.Range.From.IsZero() && !req.Range.To.IsZero() && req.Range.To.Before(req.Range.From) {
		return nil, common.NewValidationError("invalid export", map[string]string{"date_range": "end must not be before start"})
	}

	var table export.Table
	switch model := strings.ToLower(strings.TrimSpace(req.Model)); model {
	case "users":
		items, err := s.reports.Users(ctx, req.Range)
		if err != nil {
			return nil, err
		}
		table = export.UsersTable(items)
	case "jobs":
		items, err := s.reports.Jobs(ctx, req.Range)
		if err != nil {
			return nil, err
		}
		table = export.JobsTable(items)
	case "applications":
		items, err := s.reports.Applications(ctx, req.Range)
		if err != nil {
			return nil, err
		}
		table = export.ApplicationsTable(items)
	default:
		return nil, common.NewValidationError("invalid export", map[string]string{"model": "model must be users, jobs, or applications"})
	}

	data, err := export.Encode(format, table)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to encode export", err)
	}
	return &ExportFile{
		Name:        fmt.Sprintf("%s-%s.%s", table.Name, s.now().Format("20060102-150405"), format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Logs returns the last tail records of the log file, oldest first. Lines
// that are not JSON are returned as plain strings.
func (s *UtilityService) Logs(tail int) ([]any, error) {
	if s.logFile == "" {
		return nil, common.NewError(common.CodeNotFound, "Log file is not configured", nil)
	}
	if tail <= 0 {
		tail = DefaultLogTail
	}
	if tail > MaxLogTail {
		tail = MaxLogTail
	}
	f, err := os.Open(s.logFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []any{}, nil
		}
		return nil, common.NewError(common.CodeInternal, "failed to read logs", err)
	}
	defer f.Close()

	ring := make([]string, 0, tail)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(ring) == tail {
			ring = ring[1:]
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to read logs", err)
	}

	entries := make([]any, 0, len(ring))
	for _, line := range ring {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			entries = append(entries, line)
			continue
		}
		entries = append(entries, record)
	}
	return entries, nil
}
