package core

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// CrossShardCrossChainUpdate notifies a sibling shard that a transfer has
// been certified (spec.md §3 glossary).
type CrossShardCrossChainUpdate struct {
	ShardID     ShardId
	Certificate CertifiedCrossChainTransferOrder
}

// CrossShardBus is an unbounded, single-producer/single-consumer FIFO
// carrying CrossShardCrossChainUpdate messages (spec.md §4.5). Send never
// blocks; Recv blocks until an item is available or the bus is closed.
type CrossShardBus struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []CrossShardCrossChainUpdate
	closed bool
}

func NewCrossShardBus() *CrossShardBus {
	b := &CrossShardBus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send enqueues update. It never blocks; the queue grows as needed, bounded
// only by memory. Send on a closed bus returns ConfigurationError.
func (b *CrossShardBus) Send(update CrossShardCrossChainUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return NewError(ErrConfigurationError, "cross-shard bus is closed")
	}
	b.queue = append(b.queue, update)
	b.cond.Signal()
	return nil
}

// Recv blocks until an update is available or the bus closes. ok is false
// once the bus is closed and drained.
func (b *CrossShardBus) Recv() (update CrossShardCrossChainUpdate, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 && !b.closed {
		b.cond.Wait()
	}
	if len(b.queue) == 0 {
		return CrossShardCrossChainUpdate{}, false
	}
	update = b.queue[0]
	b.queue = b.queue[1:]
	return update, true
}

// Close marks the bus closed; blocked and future Recv calls return ok=false
// once drained, and Send returns ConfigurationError.
func (b *CrossShardBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}

// RunCrossShardConsumer drains updates from bus and applies each via
// apply, logging but not failing on per-message errors (spec.md §4.5). It
// returns when the bus closes or ctx is cancelled; cancellation closes the
// bus so a blocked Recv wakes up.
func RunCrossShardConsumer(ctx context.Context, bus *CrossShardBus, log *logrus.Entry, apply func(CrossShardCrossChainUpdate) error) {
	go func() {
		<-ctx.Done()
		bus.Close()
	}()
	for {
		update, ok := bus.Recv()
		if !ok {
			return
		}
		if err := apply(update); err != nil {
			log.WithError(err).WithField("interop_tx_id", update.Certificate.Order.Transfer.InteropTxId).
				Warn("cross-shard update rejected")
		}
	}
}
