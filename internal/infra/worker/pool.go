package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrQueueFull = errors.New("worker queue full")
	ErrStopped   = errors.New("worker pool stopped")
)

type Task func(ctx context.Context) error

// KeyedPool runs tasks on a fixed set of workers. Tasks submitted with the
// same key always land on the same worker, so they run one at a time and in
// submission order.
type KeyedPool struct {
	wg     sync.WaitGroup
	queues []chan Task
	quit   chan struct{}
	once   sync.Once
	log    *zerolog.Logger
}

func NewKeyedPool(workers, queueSize int, logger *zerolog.Logger) *KeyedPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	l := logger.With().Str("component", "worker_pool").Logger()
	p := &KeyedPool{queues: make([]chan Task, workers), quit: make(chan struct{}), log: &l}
	for i := range p.queues {
		p.queues[i] = make(chan Task, queueSize)
	}
	return p
}

func (p *KeyedPool) Start(ctx context.Context) {
	for i, q := range p.queues {
		p.wg.Add(1)
		go func(id int, jobs <-chan Task) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-jobs:
					if err := task(ctx); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("task failed")
					}
				}
			}
		}(i, q)
	}
}

// Stop signals the workers and waits for the running tasks to return.
// Queued tasks that have not started are discarded.
func (p *KeyedPool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *KeyedPool) Submit(key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.queues[p.slot(key)] <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *KeyedPool) slot(key int64) int {
	return int(uint64(key) % uint64(len(p.queues)))
}
