package intents

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker replays due return intents against the engagement service. A replay
// that succeeds commits its own intent, so the worker only handles failures:
// retry with backoff, then dead-letter.
type Worker struct {
	repo        *Repository
	fn          ReturnFunc
	logger      *slog.Logger
	workerCount int
	stop        chan struct{}
	wg          sync.WaitGroup
}

func NewWorker(repo *Repository, fn ReturnFunc, logger *slog.Logger, workerCount int) *Worker {
	if workerCount <= 0 {
		workerCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{repo: repo, fn: fn, logger: logger, workerCount: workerCount, stop: make(chan struct{})}
}

// Start launches the worker goroutines
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop signals workers to stop and waits for them
func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			w.logger.Info("intent worker stopping", "id", id)
			return
		case <-ctx.Done():
			w.logger.Info("context canceled, intent worker exiting", "id", id)
			return
		default:
			in, err := w.repo.FetchNext(ctx)
			if err != nil {
				w.logger.Error("fetch intent", "err", err)
				time.Sleep(1 * time.Second)
				continue
			}
			if in == nil {
				time.Sleep(500 * time.Millisecond)
				continue
			}
			w.Process(ctx, in)
		}
	}
}

// Process replays one intent and records the outcome. Exported so tests and
// manual recovery tooling can drive a single intent without the poll loop.
func (w *Worker) Process(ctx context.Context, in *Intent) {
	err := w.fn(ctx, in.TicketID)
	if err == nil {
		// the replay commits the intent itself; make sure a commit lost to
		// a crash inside the replay does not leave the row pending forever
		if cmErr := w.repo.Commit(ctx, in.ID); cmErr != nil {
			w.logger.Error("commit replayed intent", "id", in.ID, "err", cmErr)
		}
		return
	}

	in.Attempts++
	in.LastError = err.Error()
	if in.Attempts >= in.MaxAttempts {
		in.Status = "failed"
		if mvErr := w.repo.MoveToDeadLetter(ctx, in); mvErr != nil {
			w.logger.Error("move intent to dead letter", "id", in.ID, "err", mvErr)
		}
		return
	}

	backoff := BackoffDuration(in.Attempts)
	t := time.Now().UTC().Add(backoff)
	in.NextTryAt = &t
	in.Status = "retry"
	if upErr := w.repo.Update(ctx, in); upErr != nil {
		w.logger.Error("update intent for retry", "id", in.ID, "err", upErr)
	}
}
