package background

import (
	"context"
	"log"
	"sync"
	"time"

	"invoicekit/internal/repositories"
	"invoicekit/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages background maintenance jobs
type JobScheduler struct {
	scheduler     gocron.Scheduler
	historyRepo   repositories.HistoryRepository
	storageSvc    services.StorageService
	bucket        string
	retentionDays int
	jobs          map[string]gocron.Job
	mu            sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(historyRepo repositories.HistoryRepository, storageSvc services.StorageService,
	bucket string, retentionDays int) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:     scheduler,
		historyRepo:   historyRepo,
		storageSvc:    storageSvc,
		bucket:        bucket,
		retentionDays: retentionDays,
		jobs:          make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Retention cleanup job - daily
	retentionJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.cleanupExpiredBatches, context.Background()),
		gocron.WithName("batch-retention-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create retention cleanup job: %v", err)
	} else {
		js.jobs["retention-cleanup"] = retentionJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// cleanupExpiredBatches deletes batch history rows past the retention window
// and removes their stored outputs from object storage.
func (js *JobScheduler) cleanupExpiredBatches(ctx context.Context) error {
	if js.retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -js.retentionDays)
	log.Printf("Starting batch retention cleanup (cutoff %s)", cutoff.Format("2006-01-02"))

	objectKeys, err := js.historyRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("Failed to delete expired batch history: %v", err)
		return err
	}

	removed := 0
	for _, key := range objectKeys {
		if err := js.storageSvc.DeleteOutput(ctx, js.bucket, key); err != nil {
			log.Printf("Failed to remove stored output %s: %v", key, err)
			continue
		}
		removed++
	}

	log.Printf("Completed batch retention cleanup: %d rows pruned, %d objects removed", len(objectKeys), removed)
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)

	if err != nil {
		return err
	}

	js.jobs[name] = job
	log.Printf("Added custom job: %s", name)
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}

	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobs)
	jobs := make([]string, 0, len(js.jobs))

	for name := range js.jobs {
		jobs = append(jobs, name)
	}

	status["jobs"] = jobs

	return status
}
