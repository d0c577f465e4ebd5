package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/feishu-guardian/internal/biz/domain"
)

// Handler evaluates one chat event. A handler that claims the event stops
// the chain; later handlers never see it.
type Handler interface {
	Name() string
	Handle(ctx context.Context, ev *domain.ChatEvent) (claimed bool, err error)
}

// Pipeline funnels every incoming event through the ordered handler chain
// on a single goroutine, so handler state needs no locking.
type Pipeline struct {
	handlers []Handler
	events   chan *domain.ChatEvent
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewPipeline creates a pipeline over the given handlers, in priority order
func NewPipeline(handlers ...Handler) *Pipeline {
	return &Pipeline{
		handlers: handlers,
		events:   make(chan *domain.ChatEvent, 64),
		stopCh:   make(chan struct{}),
	}
}

// Start begins consuming submitted events
func (p *Pipeline) Start() {
	p.wg.Add(1)
	go p.loop()
	fmt.Printf("[Pipeline] Started with %d handlers\n", len(p.handlers))
}

// Stop stops the event loop; queued events are dropped
func (p *Pipeline) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	fmt.Println("[Pipeline] Stopped")
}

// Submit queues one event for processing in arrival order.
func (p *Pipeline) Submit(ev *domain.ChatEvent) {
	select {
	case p.events <- ev:
	case <-p.stopCh:
	}
}

func (p *Pipeline) loop() {
	defer p.wg.Done()
	for {
		select {
		case ev := <-p.events:
			p.Dispatch(context.Background(), ev)
		case <-p.stopCh:
			return
		}
	}
}

// Dispatch runs the handler chain over one event, stopping at the first
// handler that claims it. Handler errors are logged and do not stop the
// chain unless the event was claimed.
func (p *Pipeline) Dispatch(ctx context.Context, ev *domain.ChatEvent) {
	for _, h := range p.handlers {
		claimed, err := h.Handle(ctx, ev)
		if err != nil {
			fmt.Printf("[Pipeline] Handler %s error: %v\n", h.Name(), err)
		}
		if claimed {
			return
		}
	}
}
