package server

import (
	"context"
	"sync"
)

// Pool runs connection workers.
type Pool interface {
	// Go starts task, blocking while the pool is full. It fails only if
	// ctx is done before a slot frees up.
	Go(ctx context.Context, task func()) error
	// Wait blocks until every started task has returned.
	Wait()
}

// NewPool returns an unbounded pool for limit <= 0, otherwise a pool that
// runs at most limit tasks at once.
func NewPool(limit int) Pool {
	if limit <= 0 {
		return &unboundedPool{}
	}
	return &boundedPool{slots: make(chan struct{}, limit)}
}

type unboundedPool struct {
	wg sync.WaitGroup
}

func (p *unboundedPool) Go(ctx context.Context, task func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		task()
	}()
	return nil
}

func (p *unboundedPool) Wait() {
	p.wg.Wait()
}

type boundedPool struct {
	wg    sync.WaitGroup
	slots chan struct{}
}

func (p *boundedPool) Go(ctx context.Context, task func()) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.slots
			p.wg.Done()
		}()
		task()
	}()
	return nil
}

func (p *boundedPool) Wait() {
	p.wg.Wait()
}
