package protocol

import (
	"context"
	"errors"
	"sync"
)

// ErrPortClosed is returned by Request after the port stops serving.
var ErrPortClosed = errors.New("protocol: port closed")

// Requester sends one message and waits for its reply.
type Requester interface {
	Request(ctx context.Context, msg Message) (Reply, error)
}

type envelope struct {
	ctx   context.Context
	msg   Message
	reply chan Reply
}

// Port is an in-process request/response channel between two contexts.
// A single goroutine serves requests in arrival order; callers block until
// their reply arrives or their context ends. Abandoned replies are dropped.
type Port struct {
	handler  Handler
	requests chan envelope
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewPort creates a Port serving handler. Call Start before Request.
func NewPort(handler Handler) *Port {
	return &Port{
		handler:  handler,
		requests: make(chan envelope),
		done:     make(chan struct{}),
	}
}

// Start launches the serving goroutine. It stops when ctx ends or Close is called.
func (p *Port) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ctx.Done():
				p.Close()
				return
			case <-p.done:
				return
			case env := <-p.requests:
				// Reply channel is buffered so a caller that gave up never blocks the port.
				env.reply <- p.handler.Handle(env.ctx, env.msg)
			}
		}
	}()
}

// Request implements Requester. A missing ID is filled with a fresh one.
func (p *Port) Request(ctx context.Context, msg Message) (Reply, error) {
	if msg.ID == "" {
		msg.ID = NewRequestID()
	}
	env := envelope{ctx: ctx, msg: msg, reply: make(chan Reply, 1)}

	select {
	case p.requests <- env:
	case <-p.done:
		return Reply{}, ErrPortClosed
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}

	select {
	case r := <-env.reply:
		return r, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Close stops the port. Pending and future requests fail with ErrPortClosed.
func (p *Port) Close() {
	p.once.Do(func() { close(p.done) })
}

// Wait blocks until the serving goroutine exits.
func (p *Port) Wait() {
	p.wg.Wait()
}
