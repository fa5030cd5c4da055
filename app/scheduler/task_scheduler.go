// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/opsdash/opsdash/app/middleware"
	businessflow "github.com/opsdash/opsdash/business_flow"
)

// TaskScheduler runs the daily task generation routine at a configured
// local wall-clock time.
type TaskScheduler struct {
	taskFlow  businessflow.TaskFlow
	cron      *cron.Cron
	dailyTime string
	logger    *log.Logger
	logFile   *os.File
}

// NewTaskScheduler creates a scheduler that fires once a day at dailyTime
// (HH:MM) in the given location.
func NewTaskScheduler(taskFlow businessflow.TaskFlow, dailyTime string, loc *time.Location) *TaskScheduler {
	if loc == nil {
		loc = time.UTC
	}

	s := &TaskScheduler{
		taskFlow:  taskFlow,
		cron:      cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		dailyTime: dailyTime,
	}

	if err := s.initSchedulerLogger(); err != nil {
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *TaskScheduler) initSchedulerLogger() error {
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start registers the daily job and launches the cron loop. It returns a stop
// function that blocks until any in-flight run finishes.
func (s *TaskScheduler) Start(parent context.Context) (func(), error) {
	spec, err := buildDailySpec(s.dailyTime)
	if err != nil {
		return nil, fmt.Errorf("invalid daily time: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)

	if _, err := s.cron.AddFunc(spec, func() {
		s.runOnce(ctx)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("register daily job: %w", err)
	}

	s.cron.Start()
	s.logger.Printf("scheduler: daily task generation scheduled at %s", s.dailyTime)

	stop := func() {
		cancel()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		if s.logFile != nil {
			_ = s.logFile.Close()
		}
	}
	return stop, nil
}

// RunNow triggers a generation run outside the schedule.
func (s *TaskScheduler) RunNow(ctx context.Context) {
	s.runOnce(ctx)
}

func (s *TaskScheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	s.logger.Printf("scheduler: task generation run started")

	result, err := s.taskFlow.GenerateTasks(ctx, "scheduler", businessflow.NewClientMetadata("", "scheduler"))
	if err != nil {
		middleware.RecordTaskGeneration(0, err)
		s.logger.Printf("scheduler: task generation failed: %v", err)
		return
	}

	middleware.RecordTaskGeneration(result.TasksCreated, nil)
	s.logger.Printf("scheduler: task generation finished, %d tasks created", result.TasksCreated)
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
