// Package cron runs named maintenance jobs on robfig/cron schedules.
package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mochibot/pkg/logger"
)

// JobFunc is the work a job performs.
type JobFunc func(ctx context.Context) error

// Job represents a scheduled job.
type Job struct {
	ID          string    `json:"id"`
	Schedule    string    `json:"schedule"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
	RunCount    int       `json:"run_count"`
	LastError   string    `json:"last_error"`
	LastSuccess bool      `json:"last_success"`

	fn JobFunc
}

// Manager manages cron jobs.
type Manager struct {
	log     *logger.Logger
	timeout time.Duration

	scheduler *cron.Cron
	jobs      map[string]*Job
	entries   map[string]cron.EntryID
	mu        sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new cron manager. timeout bounds a single run; zero means
// one minute.
func New(log *logger.Logger, timeout time.Duration) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Manager{
		log:       log,
		timeout:   timeout,
		scheduler: cron.New(),
		jobs:      make(map[string]*Job),
		entries:   make(map[string]cron.EntryID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the scheduler.
func (m *Manager) Start() error {
	m.mu.RLock()
	count := len(m.jobs)
	m.mu.RUnlock()

	m.log.Info("Starting cron manager", zap.Int("jobs", count))
	m.scheduler.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (m *Manager) Stop() error {
	m.log.Info("Stopping cron manager")

	ctx := m.scheduler.Stop()
	<-ctx.Done()

	m.cancel()

	m.log.Info("Cron manager stopped")
	return nil
}

// AddJob schedules fn under id, replacing any job with the same id.
// schedule is a standard five-field expression or a descriptor like "@every 30s".
func (m *Manager) AddJob(id, schedule string, fn JobFunc) (*Job, error) {
	if fn == nil {
		return nil, fmt.Errorf("job %s: nil func", id)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:        id,
		Schedule:  schedule,
		Enabled:   true,
		CreatedAt: time.Now(),
		fn:        fn,
	}
	if prev, ok := m.jobs[id]; ok {
		job.CreatedAt = prev.CreatedAt
		job.RunCount = prev.RunCount
		job.LastRun = prev.LastRun
	}
	m.jobs[id] = job

	if err := m.scheduleJob(job); err != nil {
		delete(m.jobs, id)
		return nil, err
	}

	m.log.Info("Cron job scheduled",
		zap.String("job_id", id),
		zap.String("schedule", schedule))

	jobCopy := *job
	return &jobCopy, nil
}

// Reschedule changes the schedule of an existing job.
func (m *Manager) Reschedule(id, schedule string) error {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.Schedule == schedule {
		return nil
	}
	_, err := m.AddJob(id, schedule, job.fn)
	return err
}

// RemoveJob removes a job.
func (m *Manager) RemoveJob(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if entryID, ok := m.entries[id]; ok {
		m.scheduler.Remove(entryID)
		delete(m.entries, id)
	}
	delete(m.jobs, id)
	return nil
}

// EnableJob resumes a disabled job.
func (m *Manager) EnableJob(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.Enabled {
		return nil
	}
	job.Enabled = true
	return m.scheduleJob(job)
}

// DisableJob stops a job from running without forgetting it.
func (m *Manager) DisableJob(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	job.Enabled = false
	if entryID, ok := m.entries[id]; ok {
		m.scheduler.Remove(entryID)
		delete(m.entries, id)
	}
	return nil
}

// ListJobs returns copies of all jobs sorted by id.
func (m *Manager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobCopy := *job
		jobs = append(jobs, &jobCopy)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

// GetJob returns a copy of one job.
func (m *Manager) GetJob(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	jobCopy := *job
	return &jobCopy, nil
}

// RunNow executes a job immediately, outside its schedule.
func (m *Manager) RunNow(id string) error {
	m.mu.RLock()
	_, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	m.executeJob(id)
	return nil
}

// scheduleJob schedules a job in the cron scheduler.
// Caller must hold m.mu lock.
func (m *Manager) scheduleJob(job *Job) error {
	if entryID, exists := m.entries[job.ID]; exists {
		m.scheduler.Remove(entryID)
		delete(m.entries, job.ID)
	}

	id := job.ID
	entryID, err := m.scheduler.AddFunc(job.Schedule, func() {
		m.executeJob(id)
	})
	if err != nil {
		return err
	}
	m.entries[id] = entryID
	job.NextRun = m.nextRun(entryID)
	return nil
}

// nextRun reports the entry's next activation. The scheduler only fills
// Entry.Next once it is running, so fall back to the parsed schedule.
func (m *Manager) nextRun(entryID cron.EntryID) time.Time {
	entry := m.scheduler.Entry(entryID)
	if !entry.Next.IsZero() || entry.Schedule == nil {
		return entry.Next
	}
	return entry.Schedule.Next(time.Now())
}

func (m *Manager) executeJob(id string) {
	m.mu.RLock()
	job, exists := m.jobs[id]
	if !exists || !job.Enabled {
		m.mu.RUnlock()
		return
	}
	fn := job.fn
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()

	err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	job, exists = m.jobs[id]
	if !exists {
		return
	}
	job.LastRun = time.Now()
	job.RunCount++
	if err != nil {
		job.LastSuccess = false
		job.LastError = err.Error()
		m.log.Error("Cron job failed",
			zap.String("job_id", id),
			zap.Error(err))
	} else {
		job.LastSuccess = true
		job.LastError = ""
	}
	if entryID, ok := m.entries[id]; ok {
		job.NextRun = m.nextRun(entryID)
	}
}
