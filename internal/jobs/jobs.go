// Package jobs is the in-process scheduled-job runner cmd/server uses to
// keep the grid aggregator's pooled statistics fresh without an external
// cron, trimmed to its worker-pool/scheduler kernel and re-targeted at this
// module's one recurring job (grid recompute) instead of the FUB/AppFolio
// sync jobs it originally carried. The region polygon cache is refreshed by
// its own loop in internal/region, not by this package.
package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// JobManager runs registered jobs on a schedule via a small worker pool.
type JobManager struct {
	jobs          map[string]*Job
	scheduledJobs map[string]*ScheduledJob
	jobQueue      chan *JobExecution
	workers       []*Worker
	ctx           context.Context
	cancel        context.CancelFunc
	mutex         sync.RWMutex
	running       bool
}

// Job is a named, retryable unit of work.
type Job struct {
	ID         string
	Name       string
	Handler    JobHandler
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// ScheduledJob ties a Job to a recurring schedule.
type ScheduledJob struct {
	ID         string
	JobID      string
	Name       string
	Schedule   string // cron expression, a fixed small vocabulary (see parseNextCronTime)
	NextRun    time.Time
	LastRun    *time.Time
	Enabled    bool
	Parameters map[string]interface{}
}

// JobExecution is one run of a Job.
type JobExecution struct {
	ID         string
	JobID      string
	Status     JobStatus
	Parameters map[string]interface{}
	Result     *JobResult
	StartedAt  time.Time
	FinishedAt *time.Time
	Attempts   int
	LastError  string
	Worker     string
}

// JobResult is what a JobHandler returns on success.
type JobResult struct {
	Success      bool
	Data         map[string]interface{}
	ErrorMessage string
	Duration     time.Duration
}

// Worker pulls executions off the shared queue and runs them.
type Worker struct {
	ID        string
	manager   *JobManager
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	processed int
	errors    int
}

// JobHandler is the unit of work a Job wraps.
type JobHandler interface {
	Execute(ctx context.Context, params map[string]interface{}) (*JobResult, error)
}

// JobStatus is an execution's lifecycle state.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// NewJobManager builds a JobManager with workerCount background workers.
func NewJobManager(workerCount int) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())

	jm := &JobManager{
		jobs:          make(map[string]*Job),
		scheduledJobs: make(map[string]*ScheduledJob),
		jobQueue:      make(chan *JobExecution, 100),
		ctx:           ctx,
		cancel:        cancel,
	}
	jm.createWorkers(workerCount)
	return jm
}

// RegisterJob registers job for later scheduling.
func (jm *JobManager) RegisterJob(job *Job) {
	jm.mutex.Lock()
	defer jm.mutex.Unlock()
	jm.jobs[job.ID] = job
	log.Printf("jobs: registered %s (%s)", job.Name, job.ID)
}

// ScheduleJob attaches a recurring schedule to a previously registered job.
func (jm *JobManager) ScheduleJob(jobID, name, cronExpr string, params map[string]interface{}) error {
	jm.mutex.Lock()
	defer jm.mutex.Unlock()

	if _, exists := jm.jobs[jobID]; !exists {
		return fmt.Errorf("job %s not found", jobID)
	}

	nextRun, err := parseNextCronTime(cronExpr, time.Now())
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	scheduledJob := &ScheduledJob{
		ID:         fmt.Sprintf("sched_%s", jobID),
		JobID:      jobID,
		Name:       name,
		Schedule:   cronExpr,
		NextRun:    nextRun,
		Enabled:    true,
		Parameters: params,
	}
	jm.scheduledJobs[scheduledJob.ID] = scheduledJob
	log.Printf("jobs: scheduled %s, next run %v", name, nextRun)
	return nil
}

// Start starts the worker pool and the scheduler tick.
func (jm *JobManager) Start() {
	jm.mutex.Lock()
	if jm.running {
		jm.mutex.Unlock()
		return
	}
	jm.running = true
	jm.mutex.Unlock()

	for _, worker := range jm.workers {
		go worker.Start()
	}
	go jm.runScheduler()
	log.Println("jobs: manager started")
}

// QueueJob enqueues an immediate run of job, outside its regular schedule.
func (jm *JobManager) QueueJob(jobID string, params map[string]interface{}) (*JobExecution, error) {
	jm.mutex.RLock()
	job, exists := jm.jobs[jobID]
	jm.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobID)
	}

	execution := &JobExecution{
		ID:         fmt.Sprintf("exec_%s_%d", jobID, time.Now().UnixNano()),
		JobID:      jobID,
		Status:     JobStatusPending,
		Parameters: params,
		StartedAt:  time.Now(),
	}

	select {
	case jm.jobQueue <- execution:
		log.Printf("jobs: queued %s (%s)", job.Name, execution.ID)
		return execution, nil
	default:
		return nil, fmt.Errorf("job queue is full")
	}
}

func (jm *JobManager) runScheduler() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			jm.checkScheduledJobs()
		case <-jm.ctx.Done():
			return
		}
	}
}

func (jm *JobManager) checkScheduledJobs() {
	now := time.Now()
	jm.mutex.Lock()
	defer jm.mutex.Unlock()
	for _, scheduledJob := range jm.scheduledJobs {
		if !scheduledJob.Enabled || !now.After(scheduledJob.NextRun) {
			continue
		}
		if _, err := jm.queueLocked(scheduledJob.JobID, scheduledJob.Parameters); err != nil {
			log.Printf("jobs: failed to queue %s: %v", scheduledJob.Name, err)
			continue
		}
		nextRun, err := parseNextCronTime(scheduledJob.Schedule, now)
		if err != nil {
			continue
		}
		lastRun := scheduledJob.NextRun
		scheduledJob.LastRun = &lastRun
		scheduledJob.NextRun = nextRun
	}
}

// queueLocked is QueueJob's body for callers already holding jm.mutex.
func (jm *JobManager) queueLocked(jobID string, params map[string]interface{}) (*JobExecution, error) {
	job, exists := jm.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	execution := &JobExecution{
		ID:         fmt.Sprintf("exec_%s_%d", jobID, time.Now().UnixNano()),
		JobID:      jobID,
		Status:     JobStatusPending,
		Parameters: params,
		StartedAt:  time.Now(),
	}
	select {
	case jm.jobQueue <- execution:
		log.Printf("jobs: queued %s (%s)", job.Name, execution.ID)
		return execution, nil
	default:
		return nil, fmt.Errorf("job queue is full")
	}
}

func (jm *JobManager) createWorkers(count int) {
	jm.workers = make([]*Worker, count)
	for i := 0; i < count; i++ {
		ctx, cancel := context.WithCancel(jm.ctx)
		jm.workers[i] = &Worker{ID: fmt.Sprintf("worker-%d", i+1), manager: jm, ctx: ctx, cancel: cancel}
	}
}

// Start runs w's dispatch loop until its context is cancelled.
func (w *Worker) Start() {
	w.running = true
	for {
		select {
		case execution := <-w.manager.jobQueue:
			w.executeJob(execution)
		case <-w.ctx.Done():
			w.running = false
			return
		}
	}
}

func (w *Worker) executeJob(execution *JobExecution) {
	w.manager.mutex.RLock()
	job, exists := w.manager.jobs[execution.JobID]
	w.manager.mutex.RUnlock()
	if !exists {
		return
	}

	execution.Status = JobStatusRunning
	execution.Worker = w.ID
	execution.Attempts++

	ctx, cancel := context.WithTimeout(w.ctx, job.Timeout)
	defer cancel()

	start := time.Now()
	result, err := job.Handler.Execute(ctx, execution.Parameters)
	duration := time.Since(start)
	finished := start.Add(duration)
	execution.FinishedAt = &finished

	if err != nil {
		w.errors++
		execution.Status = JobStatusFailed
		execution.LastError = err.Error()
		if execution.Attempts < job.MaxRetries {
			execution.Status = JobStatusRetrying
			log.Printf("jobs: %s failed (attempt %d/%d), retrying in %v: %v", job.Name, execution.Attempts, job.MaxRetries, job.RetryDelay, err)
			go func() {
				time.Sleep(job.RetryDelay)
				select {
				case w.manager.jobQueue <- execution:
				default:
					log.Printf("jobs: failed to requeue %s", job.Name)
				}
			}()
		} else {
			log.Printf("jobs: %s failed after %d attempts: %v", job.Name, execution.Attempts, err)
		}
		return
	}

	w.processed++
	execution.Status = JobStatusCompleted
	execution.Result = result
	log.Printf("jobs: %s completed in %v", job.Name, duration)
}

// parseNextCronTime understands a small fixed vocabulary of schedules
// (daily at 02:00, hourly; cmd/server uses the daily one); anything else is an error
// rather than a silent fallback, since a misconfigured schedule should
// fail registration, not run at the wrong cadence.
func parseNextCronTime(cronExpr string, now time.Time) (time.Time, error) {
	switch cronExpr {
	case "0 2 * * *": // daily at 2 AM
		next := now.Add(24 * time.Hour)
		return time.Date(next.Year(), next.Month(), next.Day(), 2, 0, 0, 0, next.Location()), nil
	case "0 * * * *": // hourly
		next := now.Add(time.Hour)
		return time.Date(next.Year(), next.Month(), next.Day(), next.Hour(), 0, 0, 0, next.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported schedule expression %q", cronExpr)
	}
}

// Stats reports the manager's current throughput.
func (jm *JobManager) Stats() map[string]interface{} {
	jm.mutex.RLock()
	defer jm.mutex.RUnlock()

	var processed, errs int
	for _, w := range jm.workers {
		processed += w.processed
		errs += w.errors
	}
	return map[string]interface{}{
		"workers":         len(jm.workers),
		"jobs_registered": len(jm.jobs),
		"scheduled_jobs":  len(jm.scheduledJobs),
		"total_processed": processed,
		"total_errors":    errs,
		"queue_length":    len(jm.jobQueue),
		"running":         jm.running,
	}
}

// Stop cancels the scheduler and every worker.
func (jm *JobManager) Stop() {
	jm.mutex.Lock()
	jm.running = false
	jm.mutex.Unlock()
	for _, w := range jm.workers {
		w.cancel()
	}
	jm.cancel()
	log.Println("jobs: manager stopped")
}
