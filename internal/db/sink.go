package db

import (
	"context"
	"log"

	"github.com/unklstewy/uatfeed/internal/report"
)

// sinkBuffer is the archive backlog. The reporter must never block on the
// database, so reports beyond this are dropped.
const sinkBuffer = 256

// Sink adapts the report repository to the reporter's fan-out interface,
// decoupling the report loop from database latency with a buffered
// worker.
type Sink struct {
	repo *ReportRepository
	ch   chan report.Report
}

// NewSink creates a sink backed by repo. Run must be started for reports
// to reach the database.
func NewSink(repo *ReportRepository) *Sink {
	return &Sink{
		repo: repo,
		ch:   make(chan report.Report, sinkBuffer),
	}
}

// Publish queues a report for archiving without blocking.
func (s *Sink) Publish(rep report.Report) {
	select {
	case s.ch <- rep:
	default:
		log.Printf("Warning: report archive backlog full, dropping report for %s", rep.Key)
	}
}

// Run drains the archive queue until ctx is cancelled.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rep := <-s.ch:
			err := WithRetry(func() error {
				return s.repo.InsertReport(ctx, rep)
			}, 2)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Failed to archive report for %s: %v", rep.Key, err)
			}
		}
	}
}
