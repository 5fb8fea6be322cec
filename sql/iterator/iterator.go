// Package iterator implements the block-based pull iterators (C10 in the
// design) that the physical plan operators compose: a RowIterator reads
// rows on demand, and the Caching/Sorting/Grouping/Hashing iterators wrap
// one to buffer, reorder, aggregate or index its output.
package iterator

import (
	"io"
	"sort"

	"github.com/mitchellh/hashstructure"

	"github.com/csvsqldb/csvsqldb/sql/block"
	"github.com/csvsqldb/csvsqldb/sql/function"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// ColumnInfo describes one output column: its table qualifier (may be
// empty), its name, and its scalar type.
type ColumnInfo struct {
	Table string
	Name  string
	Type  types.Type
}

// RowIterator is the pull interface every physical operator and every
// iterator in this package implements. Next returns io.EOF once
// exhausted; Close releases any blocks the iterator checked out.
type RowIterator interface {
	Columns() []ColumnInfo
	Next() (block.Row, error)
	Close() error
}

// sliceIterator replays a fixed slice of rows, used as the terminal state
// of Caching/Sorting once their source is exhausted.
type sliceIterator struct {
	cols []ColumnInfo
	rows []block.Row
	pos  int
}

func (s *sliceIterator) Columns() []ColumnInfo { return s.cols }

func (s *sliceIterator) Next() (block.Row, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *sliceIterator) Close() error { return nil }

// CachingBlockIterator drains its source once into an in-memory slice of
// rows, then replays them; it is used wherever a subquery or build-side
// relation must be scanned more than once in a single query. The buffered
// rows are not stored in BlockManager blocks.
type CachingBlockIterator struct {
	source  RowIterator
	manager *block.BlockManager
	cached  *sliceIterator
}

// NewCachingBlockIterator wraps source. While it drains source it checks
// out one block from manager (so the drain fails if the pool is
// exhausted) and releases it when the drain ends; the block holds none of
// the buffered rows.
func NewCachingBlockIterator(source RowIterator, manager *block.BlockManager) *CachingBlockIterator {
	return &CachingBlockIterator{source: source, manager: manager}
}

func (c *CachingBlockIterator) fill() error {
	if c.cached != nil {
		return nil
	}
	b, err := c.manager.CreateBlock()
	if err != nil {
		return err
	}
	defer c.manager.Release(b)

	var rows []block.Row
	for {
		row, err := c.source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	c.cached = &sliceIterator{cols: c.source.Columns(), rows: rows}
	return nil
}

func (c *CachingBlockIterator) Columns() []ColumnInfo { return c.source.Columns() }

func (c *CachingBlockIterator) Next() (block.Row, error) {
	if err := c.fill(); err != nil {
		return nil, err
	}
	return c.cached.Next()
}

// Rewind restarts replay from the first buffered row without re-reading
// the source, used by nested-loop style joins that scan the build side
// once per outer row.
func (c *CachingBlockIterator) Rewind() error {
	if err := c.fill(); err != nil {
		return err
	}
	c.cached.pos = 0
	return nil
}

func (c *CachingBlockIterator) Close() error { return c.source.Close() }

// SortKey is one ORDER BY term: an index into the row plus sort
// direction.
type SortKey struct {
	ColumnIndex int
	Descending  bool
}

// SortingBlockIterator drains its source, sorts the buffered rows by
// Keys, and replays them in order.
type SortingBlockIterator struct {
	source RowIterator
	keys   []SortKey
	sorted *sliceIterator
}

// NewSortingBlockIterator wraps source, sorting its output by keys on
// first read.
func NewSortingBlockIterator(source RowIterator, keys []SortKey) *SortingBlockIterator {
	return &SortingBlockIterator{source: source, keys: keys}
}

func (s *SortingBlockIterator) fill() error {
	if s.sorted != nil {
		return nil
	}
	var rows []block.Row
	for {
		row, err := s.source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		less, err := rowLess(rows[i], rows[j], s.keys)
		if err != nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}

	s.sorted = &sliceIterator{cols: s.source.Columns(), rows: rows}
	return nil
}

func rowLess(a, b block.Row, keys []SortKey) (bool, error) {
	for _, k := range keys {
		av, bv := a[k.ColumnIndex], b[k.ColumnIndex]
		lt, err := av.Less(bv)
		if err != nil {
			return false, err
		}
		if lt {
			return !k.Descending, nil
		}
		gt, err := bv.Less(av)
		if err != nil {
			return false, err
		}
		if gt {
			return k.Descending, nil
		}
	}
	return false, nil
}

func (s *SortingBlockIterator) Columns() []ColumnInfo { return s.source.Columns() }

func (s *SortingBlockIterator) Next() (block.Row, error) {
	if err := s.fill(); err != nil {
		return nil, err
	}
	return s.sorted.Next()
}

func (s *SortingBlockIterator) Close() error { return s.source.Close() }

// GroupKeyFunc extracts the group-by column values from a row.
type GroupKeyFunc func(block.Row) []types.Variant

// AggregateSpec describes one aggregate projected by a GroupingBlockIterator.
type AggregateSpec struct {
	Function  string
	ArgColumn int // -1 for COUNT(*)
}

// GroupingBlockIterator drains its source, hashing each row's group-by
// values with hashstructure to bucket it, feeds each aggregate's Step
// with the row's argument column, and replays one output row per group:
// the group-by values followed by each aggregate's Finalize result.
type GroupingBlockIterator struct {
	source     RowIterator
	keyFunc    GroupKeyFunc
	aggregates []AggregateSpec
	registry   *function.Registry
	result     *sliceIterator
	cols       []ColumnInfo
}

// NewGroupingBlockIterator wraps source, grouping by keyFunc and
// computing aggregates via registry.
func NewGroupingBlockIterator(source RowIterator, keyFunc GroupKeyFunc, aggregates []AggregateSpec, registry *function.Registry, outCols []ColumnInfo) *GroupingBlockIterator {
	return &GroupingBlockIterator{source: source, keyFunc: keyFunc, aggregates: aggregates, registry: registry, cols: outCols}
}

type groupState struct {
	keyValues  []types.Variant
	aggregates []function.Aggregate
}

func (g *GroupingBlockIterator) fill() error {
	if g.result != nil {
		return nil
	}

	order := make([]*groupState, 0)
	buckets := make(map[uint64][]*groupState)

	for {
		row, err := g.source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		keyValues := g.keyFunc(row)
		hash, err := hashstructure.Hash(keyValues, nil)
		if err != nil {
			return err
		}

		var state *groupState
		for _, candidate := range buckets[hash] {
			if types.SameValues(candidate.keyValues, keyValues) {
				state = candidate
				break
			}
		}
		if state == nil {
			state = &groupState{keyValues: keyValues}
			for _, spec := range g.aggregates {
				agg, err := g.registry.NewAggregate(spec.Function)
				if err != nil {
					return err
				}
				state.aggregates = append(state.aggregates, agg)
			}
			buckets[hash] = append(buckets[hash], state)
			order = append(order, state)
		}

		for i, spec := range g.aggregates {
			var args []types.Variant
			if spec.ArgColumn >= 0 {
				args = []types.Variant{row[spec.ArgColumn]}
			}
			if err := state.aggregates[i].Step(args); err != nil {
				return err
			}
		}
	}

	var rows []block.Row
	for _, state := range order {
		row := append(block.Row{}, state.keyValues...)
		for _, agg := range state.aggregates {
			row = append(row, agg.Finalize())
		}
		rows = append(rows, row)
	}

	g.result = &sliceIterator{cols: g.cols, rows: rows}
	return nil
}

func (g *GroupingBlockIterator) Columns() []ColumnInfo { return g.cols }

func (g *GroupingBlockIterator) Next() (block.Row, error) {
	if err := g.fill(); err != nil {
		return nil, err
	}
	return g.result.Next()
}

func (g *GroupingBlockIterator) Close() error { return g.source.Close() }

// hashEntry pairs a build-side row with the join-key values it was
// indexed under, so a hash bucket can be filtered down to rows whose
// key actually equals the probe key rather than just sharing its hash.
type hashEntry struct {
	key []types.Variant
	row block.Row
}

// HashingBlockIterator drains its build-side source into a hash map
// keyed by hashstructure.Hash(joinColumns), used by the plan package's
// InnerHashJoin/LeftJoin/RightJoin nodes to avoid a nested-loop scan of
// the build side per probe row.
type HashingBlockIterator struct {
	source  RowIterator
	keyFunc GroupKeyFunc
	buckets map[uint64][]hashEntry
	built   bool
}

// NewHashingBlockIterator wraps source, indexing it by keyFunc on first use.
func NewHashingBlockIterator(source RowIterator, keyFunc GroupKeyFunc) *HashingBlockIterator {
	return &HashingBlockIterator{source: source, keyFunc: keyFunc, buckets: map[uint64][]hashEntry{}}
}

func (h *HashingBlockIterator) build() error {
	if h.built {
		return nil
	}
	for {
		row, err := h.source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		key := h.keyFunc(row)
		hash, err := hashstructure.Hash(key, nil)
		if err != nil {
			return err
		}
		h.buckets[hash] = append(h.buckets[hash], hashEntry{key: key, row: row})
	}
	h.built = true
	return nil
}

// Lookup returns every build-side row whose join key actually equals
// key: the hash only narrows the bucket, every candidate in it is then
// compared against key value-by-value with types.SameValues to rule out
// hash collisions and unrelated keys that happened to land in the same
// bucket.
func (h *HashingBlockIterator) Lookup(key []types.Variant) ([]block.Row, error) {
	if err := h.build(); err != nil {
		return nil, err
	}
	hash, err := hashstructure.Hash(key, nil)
	if err != nil {
		return nil, err
	}
	var matches []block.Row
	for _, entry := range h.buckets[hash] {
		if types.SameValues(entry.key, key) {
			matches = append(matches, entry.row)
		}
	}
	return matches, nil
}

func (h *HashingBlockIterator) Columns() []ColumnInfo { return h.source.Columns() }
func (h *HashingBlockIterator) Close() error          { return h.source.Close() }
