package csv

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// queueDepth bounds the producer/consumer channel, giving natural
// backpressure since the BlockManager itself refuses allocation past its
// active-block ceiling.
const queueDepth = 4

type queueItem struct {
	block *block.Block
	err   error
}

// BlockReader drives one producer goroutine that parses CSV lines into
// blocks checked out from a shared BlockManager, and a consumer side
// (GetNextBlock) that pulls completed blocks off a bounded channel. It
// is a single-producer/single-consumer design.
type BlockReader struct {
	parser  *Parser
	manager *block.BlockManager
	columns []ColumnSpec
	log     *logrus.Logger

	queue   chan queueItem
	quit    atomic.Bool
	started bool
	done    chan struct{}
	once    sync.Once
}

// NewBlockReader creates a reader that will parse rows shaped like
// columns from parser, using manager to check out blocks.
func NewBlockReader(parser *Parser, columns []ColumnSpec, manager *block.BlockManager, log *logrus.Logger) *BlockReader {
	if log == nil {
		log = logrus.New()
	}
	return &BlockReader{
		parser:  parser,
		manager: manager,
		columns: columns,
		log:     log,
		queue:   make(chan queueItem, queueDepth),
		done:    make(chan struct{}),
	}
}

// Initialize spawns the producer goroutine. Calling it twice is a no-op.
func (r *BlockReader) Initialize() {
	if r.started {
		return
	}
	r.started = true
	go r.produce()
}

func (r *BlockReader) produce() {
	defer close(r.done)
	defer close(r.queue)

	b, err := r.manager.CreateBlock()
	if err != nil {
		r.queue <- queueItem{err: err}
		return
	}

	rowCount := 0
	for {
		if r.quit.Load() {
			r.manager.Release(b)
			return
		}

		fields, err := r.parser.NextLine()
		if err == io.EOF {
			b.EndBlocks()
			if rowCount > 0 || b.IsEnd() {
				r.queue <- queueItem{block: b}
			} else {
				r.manager.Release(b)
			}
			return
		}
		if err != nil {
			r.log.WithError(err).Error("csv producer: parse error")
			r.queue <- queueItem{err: err}
			return
		}

		if len(fields) != len(r.columns) {
			r.log.WithFields(logrus.Fields{"expected": len(r.columns), "got": len(fields), "line": r.parser.LineNo()}).
				Warn("csv producer: column count mismatch")
		}

		values := make([]types.Variant, len(r.columns))
		for i, spec := range r.columns {
			var raw string
			if i < len(fields) {
				raw = fields[i]
			}
			v, err := ParseField(raw, spec)
			if err != nil {
				r.queue <- queueItem{err: err}
				return
			}
			values[i] = v
		}

		if !b.WouldFit(values) {
			b.MarkNextBlock()
			r.queue <- queueItem{block: b}

			b, err = r.manager.CreateBlock()
			if err != nil {
				r.queue <- queueItem{err: err}
				return
			}
			rowCount = 0
		}

		for _, v := range values {
			if err := b.AddValue(v); err != nil {
				r.queue <- queueItem{err: err}
				return
			}
		}
		b.NextRow()
		rowCount++
	}
}

// GetNextBlock pops the next completed block off the queue, blocking
// until one is available. Any error captured in the producer goroutine
//") is returned
// here instead.
func (r *BlockReader) GetNextBlock() (*block.Block, error) {
	item, ok := <-r.queue
	if !ok {
		return nil, io.EOF
	}
	if item.err != nil {
		return nil, item.err
	}
	return item.block, nil
}

// Cancel sets the cooperative quit flag; the producer checks it before
// parsing each line and terminates, releasing the block it was filling.
func (r *BlockReader) Cancel() {
	r.quit.Store(true)
}

// Close cancels the producer if still running, drains any blocks still
// in flight back to the manager, and waits for the goroutine to exit.
func (r *BlockReader) Close() error {
	r.once.Do(func() {
		r.Cancel()
		for item := range r.queue {
			if item.block != nil {
				r.manager.Release(item.block)
			}
		}
	})
	<-r.done
	return nil
}
