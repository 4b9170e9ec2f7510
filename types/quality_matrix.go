package types

import "math"

// QualityEntry is one learned (state, action) value. Result is the state the
// action led to when it was last applied during training, nil if unknown.
type QualityEntry struct {
	Pair   StateAndActionPair
	Result State
	Value  float64
}

type stateRow struct {
	state   State
	order   []string
	actions map[string]*QualityEntry
}

// QualityMatrix maps (state, action) pairs to learned values.
// Actions of a state are kept in first-insertion order so that
// iteration is deterministic.
// Not safe for concurrent use.
type QualityMatrix struct {
	table map[string]*stateRow
	order []string
	size  int
}

func NewQualityMatrix() *QualityMatrix {
	return &QualityMatrix{
		table: make(map[string]*stateRow),
		order: make([]string, 0),
	}
}

func (q *QualityMatrix) row(state State) *stateRow {
	stateHash := state.Hash()
	r, ok := q.table[stateHash]
	if !ok {
		r = &stateRow{
			state:   state,
			order:   make([]string, 0),
			actions: make(map[string]*QualityEntry),
		}
		q.table[stateHash] = r
		q.order = append(q.order, stateHash)
	}
	return r
}

// Value returns the value of the pair, 0 if it was never set
func (q *QualityMatrix) Value(state State, action Action) float64 {
	if e, ok := q.Lookup(state, action); ok {
		return e.Value
	}
	return 0
}

// Lookup returns the entry of the pair if present
func (q *QualityMatrix) Lookup(state State, action Action) (*QualityEntry, bool) {
	return q.LookupKey(PairKey{State: state.Hash(), Action: action.Hash()})
}

func (q *QualityMatrix) LookupKey(key PairKey) (*QualityEntry, bool) {
	r, ok := q.table[key.State]
	if !ok {
		return nil, false
	}
	e, ok := r.actions[key.Action]
	return e, ok
}

// Set stores the value of the pair. A nil result keeps the previously
// recorded result state.
func (q *QualityMatrix) Set(state State, action Action, result State, val float64) {
	r := q.row(state)
	actionHash := action.Hash()
	e, ok := r.actions[actionHash]
	if !ok {
		e = &QualityEntry{Pair: NewStateAndActionPair(state, action)}
		r.actions[actionHash] = e
		r.order = append(r.order, actionHash)
		q.size += 1
	}
	if result != nil {
		e.Result = result
	}
	e.Value = val
}

// HasState reports whether any action was recorded for the state
func (q *QualityMatrix) HasState(state State) bool {
	r, ok := q.table[state.Hash()]
	return ok && len(r.order) > 0
}

// StateByHash returns the state instance recorded under the hash
func (q *QualityMatrix) StateByHash(hash string) (State, bool) {
	r, ok := q.table[hash]
	if !ok {
		return nil, false
	}
	return r.state, true
}

// ActionsFrom returns the recorded entries of the state in insertion order
func (q *QualityMatrix) ActionsFrom(state State) []*QualityEntry {
	r, ok := q.table[state.Hash()]
	if !ok {
		return nil
	}
	out := make([]*QualityEntry, len(r.order))
	for i, a := range r.order {
		out[i] = r.actions[a]
	}
	return out
}

// MaxAmong returns the first action with the maximum value among the given
// actions and that value. Missing pairs count as 0. Returns false when the
// list is empty.
func (q *QualityMatrix) MaxAmong(state State, actions []Action) (Action, float64, bool) {
	if len(actions) == 0 {
		return nil, 0, false
	}
	var maxAction Action
	maxVal := math.Inf(-1)
	for _, a := range actions {
		val := q.Value(state, a)
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal, true
}

// MaxValue is the maximum value among the actions, 0 if there are none
func (q *QualityMatrix) MaxValue(state State, actions []Action) float64 {
	_, val, ok := q.MaxAmong(state, actions)
	if !ok {
		return 0
	}
	return val
}

// Entries lists all entries, states in insertion order
func (q *QualityMatrix) Entries() []*QualityEntry {
	out := make([]*QualityEntry, 0, q.size)
	for _, s := range q.order {
		r := q.table[s]
		for _, a := range r.order {
			out = append(out, r.actions[a])
		}
	}
	return out
}

// Len is the number of (state, action) entries
func (q *QualityMatrix) Len() int {
	return q.size
}

// NumStates is the number of distinct states with an entry
func (q *QualityMatrix) NumStates() int {
	return len(q.order)
}

// Merge copies every entry of other into q. Entries present in both take
// the value from other.
func (q *QualityMatrix) Merge(other *QualityMatrix) {
	for _, e := range other.Entries() {
		q.Set(e.Pair.State, e.Pair.Action, e.Result, e.Value)
	}
}
