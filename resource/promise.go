package resource

import (
	"context"
	"sync"
)

// Promise is the settle-once handle of an in-flight or completed request.
type Promise struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

func ResolvedPromise(value any) *Promise {
	promise := NewPromise()
	promise.Resolve(value)
	return promise
}

func RejectedPromise(err error) *Promise {
	promise := NewPromise()
	promise.Reject(err)
	return promise
}

// Resolve settles the promise with value. Only the first settlement wins.
func (p *Promise) Resolve(value any) bool {
	return p.settle(value, nil)
}

func (p *Promise) Reject(err error) bool {
	return p.settle(nil, err)
}

func (p *Promise) settle(value any, err error) bool {
	settled := false
	p.once.Do(func() {
		p.value = value
		p.err = err
		settled = true
		close(p.done)
	})
	return settled
}

func (p *Promise) Done() <-chan struct{} {
	return p.done
}

func (p *Promise) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the promise settles or ctx ends.
func (p *Promise) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
