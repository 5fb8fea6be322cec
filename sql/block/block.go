// Package block implements the block pool (C2 in the design): a fixed
// "byte budget" arena of rows of typed values, owned by a BlockManager that
// enforces a maximum number of simultaneously active blocks.
//
// The original C++ engine packs rows directly into a raw byte buffer with a
// marker byte in front of every value. This port instead holds each row as a slice of
// typed cells in an arena and tracks a synthetic byte budget so the
// capacity/overflow behavior callers depend on (see HasSizeFor) is
// preserved without reproducing the pointer aliasing of the original.
package block

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// Historical marker bytes from the original byte-buffer implementation.
// Nothing in this port writes them to memory, and no code or test in this
// module reads them; they are kept only as documentation of the original
// format.
const (
	ValueMarker byte = 0xAA
	RowMarker   byte = 0xBB
	BlockMarker byte = 0xCC
	EndMarker   byte = 0xDD
)

// Default capacities used when a caller leaves Config's block sizing at
// its zero value.
const (
	DefaultBlockCapacity   = 1 * 1024 * 1024
	DefaultMaxActiveBlocks = 100
)

// cellCost estimates the byte cost of a value of the given type, standing
// in for the original's marker + typed-header + payload accounting so that
// HasSizeFor still bounds how many rows fit in one block.
func cellCost(v types.Variant) int {
	const header = 9 // value marker + type tag + null bit, rounded up
	switch v.Type() {
	case types.String:
		s, _ := v.AsString()
		return header + len(s) + 1
	default:
		return header + 8
	}
}

// Row is one row's worth of cells.
type Row []types.Variant

// Block is a fixed-capacity sequence of rows. Rows are appended with the
// typed Add* methods followed by NextRow; MarkNextBlock records that the
// stream continues in a freshly allocated block, and EndBlocks
// records that this is the final block of the stream.
type Block struct {
	number   uint64
	capacity int
	used     int

	rows    []Row
	current Row

	continued bool
	ended     bool
}

func newBlock(number uint64, capacity int) *Block {
	return &Block{number: number, capacity: capacity}
}

// Number returns this block's monotonic sequence number.
func (b *Block) Number() uint64 { return b.number }

// Offset returns the synthetic byte offset consumed so far, mirroring the
// original's Block::offset().
func (b *Block) Offset() int { return b.used }

// HasSizeFor reports whether n more (synthetic) bytes fit before the two
// bytes reserved for a trailing marker.
func (b *Block) HasSizeFor(n int) bool {
	return b.used+n+2 < b.capacity
}

func (b *Block) addValue(v types.Variant) error {
	cost := cellCost(v)
	if !b.HasSizeFor(cost) {
		return csverrors.Internal.New("block is full")
	}
	b.current = append(b.current, v)
	b.used += cost
	return nil
}

// AddValue dispatches on the Variant's type, mirroring the original's
// generic Block::addValue(const Variant&).
func (b *Block) AddValue(v types.Variant) error { return b.addValue(v) }

// WouldFit reports whether every value in row could be appended to this
// block without exceeding its capacity, without actually appending
// anything. Callers that must keep a whole row together (the CSV
// producer never splits a row across two blocks) check this before
// calling AddValue for any of the row's values.
func (b *Block) WouldFit(row []types.Variant) bool {
	total := 0
	for _, v := range row {
		total += cellCost(v)
	}
	return b.HasSizeFor(total)
}

func (b *Block) AddInt(n int64, isNull bool) error {
	if isNull {
		return b.addValue(types.NewNull(types.Int))
	}
	return b.addValue(types.NewInt(n))
}

func (b *Block) AddReal(n float64, isNull bool) error {
	if isNull {
		return b.addValue(types.NewNull(types.Real))
	}
	return b.addValue(types.NewReal(n))
}

func (b *Block) AddString(s string, isNull bool) error {
	if isNull {
		return b.addValue(types.NewNull(types.String))
	}
	return b.addValue(types.NewString(s))
}

func (b *Block) AddBool(v bool, isNull bool) error {
	if isNull {
		return b.addValue(types.NewNull(types.Boolean))
	}
	return b.addValue(types.NewBoolean(v))
}

func (b *Block) AddDate(t time.Time, isNull bool) error {
	if isNull {
		return b.addValue(types.NewNull(types.Date))
	}
	return b.addValue(types.NewDate(t))
}

func (b *Block) AddTime(t time.Time, isNull bool) error {
	if isNull {
		return b.addValue(types.NewNull(types.Time))
	}
	return b.addValue(types.NewTime(t))
}

func (b *Block) AddTimestamp(t time.Time, isNull bool) error {
	if isNull {
		return b.addValue(types.NewNull(types.Timestamp))
	}
	return b.addValue(types.NewTimestamp(t))
}

// NextRow closes the row currently being built and starts a new one.
func (b *Block) NextRow() {
	b.rows = append(b.rows, b.current)
	b.current = nil
}

// MarkNextBlock records that this block overflowed and its logical stream
// continues in a freshly allocated block.
func (b *Block) MarkNextBlock() { b.continued = true }

// IsContinued reports whether MarkNextBlock was called on this block.
func (b *Block) IsContinued() bool { return b.continued }

// EndBlocks records that no more rows follow this block in the stream.
func (b *Block) EndBlocks() { b.ended = true }

// IsEnd reports whether EndBlocks was called on this block.
func (b *Block) IsEnd() bool { return b.ended }

// Rows returns the committed rows in insertion order. The row currently
// being built (not yet closed with NextRow) is not included.
func (b *Block) Rows() []Row { return b.rows }

// BlockManager pools blocks, tracking active/high-water/lifetime counts
// and refusing to allocate past MaxActiveBlocks.
type BlockManager struct {
	mu              sync.Mutex
	blocks          map[uint64]*Block
	blockCapacity   int
	maxActiveBlocks int
	activeBlocks    int
	maxUsedBlocks   int
	totalBlocks     int
	nextNumber      uint64
}

// NewBlockManager creates a manager with the given capacity and active
// block limit. A zero value for either picks the package default.
func NewBlockManager(maxActiveBlocks, blockCapacity int) *BlockManager {
	if maxActiveBlocks <= 0 {
		maxActiveBlocks = DefaultMaxActiveBlocks
	}
	if blockCapacity <= 0 {
		blockCapacity = DefaultBlockCapacity
	}
	return &BlockManager{
		blocks:          make(map[uint64]*Block),
		blockCapacity:   blockCapacity,
		maxActiveBlocks: maxActiveBlocks,
	}
}

// CreateBlock allocates a new block, or fails if doing so would exceed
// MaxActiveBlocks.
func (m *BlockManager) CreateBlock() (*Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeBlocks+1 > m.maxActiveBlocks {
		return nil, csverrors.Internal.New("exceeded maximum number of active blocks")
	}

	number := atomic.AddUint64(&m.nextNumber, 1)
	b := newBlock(number, m.blockCapacity)
	m.blocks[number] = b
	m.activeBlocks++
	m.totalBlocks++
	if m.activeBlocks > m.maxUsedBlocks {
		m.maxUsedBlocks = m.activeBlocks
	}
	return b, nil
}

// GetBlock looks a block up by number.
func (m *BlockManager) GetBlock(number uint64) (*Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.blocks[number]
	if !ok {
		return nil, csverrors.Index.New("block not found")
	}
	return b, nil
}

// Release returns a block to the pool. Releasing a block the manager did
// not create is a caller bug; it is reported rather
// than silently ignored.
func (m *BlockManager) Release(b *Block) error {
	if b == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.blocks[b.number]; !ok {
		return csverrors.Internal.New("releasing a block this manager did not create")
	}
	delete(m.blocks, b.number)
	m.activeBlocks--
	return nil
}

// ActiveBlocks returns the number of blocks currently checked out.
func (m *BlockManager) ActiveBlocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeBlocks
}

// MaxActiveBlocks returns the configured ceiling.
func (m *BlockManager) MaxActiveBlocks() int { return m.maxActiveBlocks }

// MaxUsedBlocks returns the high-water mark of active blocks.
func (m *BlockManager) MaxUsedBlocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxUsedBlocks
}

// BlockCapacity returns the per-block synthetic byte budget.
func (m *BlockManager) BlockCapacity() int { return m.blockCapacity }

// TotalBlocks returns the lifetime count of blocks ever created.
func (m *BlockManager) TotalBlocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBlocks
}

// Close releases every block still checked out.
func (m *BlockManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for number := range m.blocks {
		delete(m.blocks, number)
	}
	m.activeBlocks = 0
}
