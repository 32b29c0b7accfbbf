package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Communicator is the collective-communication surface the solver needs.
// Every collective blocks until all ranks reach it, so all ranks must call
// the same collectives in the same order. Payloads handed to a collective
// belong to the receivers afterwards and must not be modified by the sender.
type Communicator interface {
	Rank() int
	Size() int
	Barrier() error
	// Bcast returns root's data on every rank.
	Bcast(root int, data []float64) ([]float64, error)
	// AllToAll sends send[q] to rank q and returns the slices received,
	// indexed by sender.
	AllToAll(send [][]complex128) ([][]complex128, error)
	// Gather returns the slices of all ranks, indexed by sender, on root
	// and nil elsewhere.
	Gather(root int, data []float64) ([][]float64, error)
	// AllReduceSum returns the elementwise sum over ranks on every rank.
	AllReduceSum(data []float64) ([]float64, error)
	// AllReduceMax returns the elementwise maximum over ranks on every rank.
	AllReduceMax(data []float64) ([]float64, error)
}

// ErrAborted is returned from a collective when another rank of the same
// world failed before reaching it.
var ErrAborted = errors.New("communicator: run aborted by another rank")

type selfComm struct{}

// Self returns the single-rank communicator.
func Self() Communicator { return selfComm{} }

func (selfComm) Rank() int      { return 0 }
func (selfComm) Size() int      { return 1 }
func (selfComm) Barrier() error { return nil }
func (selfComm) Bcast(root int, data []float64) ([]float64, error) {
	if root != 0 {
		return nil, fmt.Errorf("communicator: root %d out of range for 1 rank", root)
	}
	return data, nil
}
func (selfComm) AllToAll(send [][]complex128) ([][]complex128, error) {
	if len(send) != 1 {
		return nil, fmt.Errorf("communicator: all-to-all needs 1 send buffer, have %d", len(send))
	}
	return [][]complex128{send[0]}, nil
}
func (selfComm) Gather(root int, data []float64) ([][]float64, error) {
	if root != 0 {
		return nil, fmt.Errorf("communicator: root %d out of range for 1 rank", root)
	}
	return [][]float64{data}, nil
}
func (selfComm) AllReduceSum(data []float64) ([]float64, error) {
	out := make([]float64, len(data))
	copy(out, data)
	return out, nil
}
func (selfComm) AllReduceMax(data []float64) ([]float64, error) {
	out := make([]float64, len(data))
	copy(out, data)
	return out, nil
}

// MailBox carries one message per sender per round to each rank. Messages
// of a round are posted before a barrier and received after it; channel
// ordering keeps rounds apart.
type MailBox[T any] struct {
	NP           int
	MessageChans []chan envelope[T] // One for each rank
}

type envelope[T any] struct {
	from int
	msg  T
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan envelope[T], NP),
	}
	for n := 0; n < NP; n++ {
		mb.MessageChans[n] = make(chan envelope[T], 2*NP) // Worst case is all-to-all plus one early round
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(ctx context.Context, myRank, targetRank int, msg T) error {
	if targetRank < 0 || targetRank > mb.NP-1 {
		panic(fmt.Sprintf("Target rank %d out of bounds", targetRank))
	}
	select {
	case mb.MessageChans[targetRank] <- envelope[T]{from: myRank, msg: msg}:
		return nil
	case <-ctx.Done():
		return ErrAborted
	}
}

// ReceiveMyMessages takes count messages from this rank's channel and
// returns them indexed by sender.
func (mb *MailBox[T]) ReceiveMyMessages(ctx context.Context, myRank, count int) ([]T, error) {
	msgs := make([]T, mb.NP)
	for i := 0; i < count; i++ {
		select {
		case env := <-mb.MessageChans[myRank]:
			msgs[env.from] = env.msg
		case <-ctx.Done():
			return nil, ErrAborted
		}
	}
	return msgs, nil
}

// cyclicBarrier releases all NP waiters together and resets for reuse.
type cyclicBarrier struct {
	mu    sync.Mutex
	n     int
	count int
	gen   chan struct{}
}

func newCyclicBarrier(n int) *cyclicBarrier {
	return &cyclicBarrier{n: n, gen: make(chan struct{})}
}

func (b *cyclicBarrier) wait(ctx context.Context) error {
	b.mu.Lock()
	release := b.gen
	b.count++
	if b.count == b.n {
		b.count = 0
		b.gen = make(chan struct{})
		close(release)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ErrAborted
	}
}

// World runs a fixed number of in-process ranks, one goroutine each.
type World struct {
	NP     int
	logger *zap.Logger
}

func NewWorld(NP int, logger *zap.Logger) (*World, error) {
	if NP < 1 {
		return nil, NewConfigurationError("NewWorld", "rank count must be positive, have %d", NP)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{NP: NP, logger: logger}, nil
}

// Run executes fn on every rank and waits for all of them. The first error
// cancels the collectives of the remaining ranks and is returned.
func (w *World) Run(ctx context.Context, fn func(comm Communicator) error) error {
	var (
		barrier  = newCyclicBarrier(w.NP)
		cmplxBox = NewMailBox[[]complex128](w.NP)
		realBox  = NewMailBox[[]float64](w.NP)
	)
	eg, egCtx := errgroup.WithContext(ctx)
	for n := 0; n < w.NP; n++ {
		rank := &rankComm{
			rank:     n,
			np:       w.NP,
			ctx:      egCtx,
			barrier:  barrier,
			cmplxBox: cmplxBox,
			realBox:  realBox,
		}
		eg.Go(func() error {
			if err := fn(rank); err != nil {
				if !errors.Is(err, ErrAborted) {
					w.logger.Debug("rank failed", zap.Int("rank", rank.rank), zap.Error(err))
				}
				return err
			}
			return nil
		})
	}
	return eg.Wait()
}

type rankComm struct {
	rank, np int
	ctx      context.Context
	barrier  *cyclicBarrier
	cmplxBox *MailBox[[]complex128]
	realBox  *MailBox[[]float64]
}

func (c *rankComm) Rank() int      { return c.rank }
func (c *rankComm) Size() int      { return c.np }
func (c *rankComm) Barrier() error { return c.barrier.wait(c.ctx) }

func (c *rankComm) checkRoot(root int) error {
	if root < 0 || root >= c.np {
		return fmt.Errorf("communicator: root %d out of range for %d ranks", root, c.np)
	}
	return nil
}

func (c *rankComm) Bcast(root int, data []float64) ([]float64, error) {
	if err := c.checkRoot(root); err != nil {
		return nil, err
	}
	// The pattern here is:
	// for range messages {Post}; blockWait; Receive
	if c.rank == root {
		for q := 0; q < c.np; q++ {
			if err := c.realBox.PostMessage(c.ctx, c.rank, q, data); err != nil {
				return nil, err
			}
		}
	}
	if err := c.Barrier(); err != nil {
		return nil, err
	}
	msgs, err := c.realBox.ReceiveMyMessages(c.ctx, c.rank, 1)
	if err != nil {
		return nil, err
	}
	return msgs[root], nil
}

func (c *rankComm) AllToAll(send [][]complex128) ([][]complex128, error) {
	if len(send) != c.np {
		return nil, fmt.Errorf("communicator: all-to-all needs %d send buffers, have %d", c.np, len(send))
	}
	for q := 0; q < c.np; q++ {
		if err := c.cmplxBox.PostMessage(c.ctx, c.rank, q, send[q]); err != nil {
			return nil, err
		}
	}
	if err := c.Barrier(); err != nil {
		return nil, err
	}
	return c.cmplxBox.ReceiveMyMessages(c.ctx, c.rank, c.np)
}

func (c *rankComm) Gather(root int, data []float64) ([][]float64, error) {
	if err := c.checkRoot(root); err != nil {
		return nil, err
	}
	if err := c.realBox.PostMessage(c.ctx, c.rank, root, data); err != nil {
		return nil, err
	}
	if err := c.Barrier(); err != nil {
		return nil, err
	}
	if c.rank != root {
		return nil, nil
	}
	return c.realBox.ReceiveMyMessages(c.ctx, c.rank, c.np)
}

func (c *rankComm) AllReduceSum(data []float64) ([]float64, error) {
	return c.allReduce(data, func(a, b float64) float64 { return a + b })
}

func (c *rankComm) AllReduceMax(data []float64) ([]float64, error) {
	return c.allReduce(data, math.Max)
}

func (c *rankComm) allReduce(data []float64, op func(a, b float64) float64) ([]float64, error) {
	for q := 0; q < c.np; q++ {
		if err := c.realBox.PostMessage(c.ctx, c.rank, q, data); err != nil {
			return nil, err
		}
	}
	if err := c.Barrier(); err != nil {
		return nil, err
	}
	msgs, err := c.realBox.ReceiveMyMessages(c.ctx, c.rank, c.np)
	if err != nil {
		return nil, err
	}
	// Reduced in rank order so every rank gets bit-identical results
	out := make([]float64, len(data))
	for p, m := range msgs {
		if len(m) != len(data) {
			return nil, fmt.Errorf("communicator: all-reduce length mismatch, %d vs %d", len(m), len(data))
		}
		for i, v := range m {
			if p == 0 {
				out[i] = v
			} else {
				out[i] = op(out[i], v)
			}
		}
	}
	return out, nil
}
