package csv

import (
	"io"

	"github.com/csvsqldb/csvsqldb/sql/block"
)

// RowReader flattens a BlockReader's block stream into individual rows,
// the shape plan.TableScanOperatorNode pulls from. It owns the
// BlockReader's lifecycle: Close cancels the producer and releases any
// block still checked out.
type RowReader struct {
	reader  *BlockReader
	manager *block.BlockManager
	current *block.Block
	pos     int
	done    bool
}

// NewRowReader wraps reader, initializing its producer goroutine.
func NewRowReader(reader *BlockReader, manager *block.BlockManager) *RowReader {
	reader.Initialize()
	return &RowReader{reader: reader, manager: manager}
}

// Next returns the next parsed row, or io.EOF once the CSV file is
// exhausted.
func (r *RowReader) Next() (block.Row, error) {
	if r.done {
		return nil, io.EOF
	}

	for {
		if r.current != nil {
			rows := r.current.Rows()
			if r.pos < len(rows) {
				row := rows[r.pos]
				r.pos++
				return row, nil
			}
			ended := r.current.IsEnd()
			r.manager.Release(r.current)
			r.current = nil
			r.pos = 0
			if ended {
				r.done = true
				return nil, io.EOF
			}
		}

		b, err := r.reader.GetNextBlock()
		if err != nil {
			r.done = true
			return nil, err
		}
		r.current = b
	}
}

// Close stops the producer goroutine and releases any outstanding block.
func (r *RowReader) Close() error {
	if r.current != nil {
		r.manager.Release(r.current)
		r.current = nil
	}
	return r.reader.Close()
}
