package analysis

import (
	"os"
	"sort"
	"sync"

	json "github.com/json-iterator/go"
	"github.com/zeu5/rlpath/rl"
)

// recordJSON keeps action hashes like 9>5 readable in recorded graphs
var recordJSON = json.Config{EscapeHTML: false, SortMapKeys: true}.Froze()

// VisitGraph is the transition graph explored during training, keyed by
// state hash. Edges are labelled by action.
type VisitGraph struct {
	Nodes map[string]*Node `json:"nodes"`

	mtx sync.Mutex
}

var _ rl.EpochObserver = &VisitGraph{}

func NewVisitGraph() *VisitGraph {
	return &VisitGraph{
		Nodes: make(map[string]*Node),
	}
}

// Node is a visited state
type Node struct {
	Key    string `json:"key"`
	Visits int    `json:"visits"`
	// Next, Prev: each action can lead to many states
	Next map[string]map[string]bool `json:"next"`
	Prev map[string]map[string]bool `json:"prev"`
}

func newNode(key string) *Node {
	return &Node{
		Key:  key,
		Next: make(map[string]map[string]bool),
		Prev: make(map[string]map[string]bool),
	}
}

func (n *Node) addNext(a, next string) {
	if _, ok := n.Next[a]; !ok {
		n.Next[a] = make(map[string]bool)
	}
	n.Next[a][next] = true
}

func (n *Node) addPrev(a, prev string) {
	if _, ok := n.Prev[a]; !ok {
		n.Prev[a] = make(map[string]bool)
	}
	n.Prev[a][prev] = true
}

func (v *VisitGraph) ObserveEpoch(e rl.EpochSummary) {
	for i := 0; i < e.Trace.Len(); i++ {
		from, action, to, _ := e.Trace.Get(i)
		v.Update(from.Hash(), action.Hash(), to.Hash())
	}
}

// Update records one transition and reports whether from was new
func (v *VisitGraph) Update(from, action, to string) bool {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	isNew := false
	if _, ok := v.Nodes[from]; !ok {
		v.Nodes[from] = newNode(from)
		isNew = true
	}
	if _, ok := v.Nodes[to]; !ok {
		v.Nodes[to] = newNode(to)
	}
	v.Nodes[from].Visits += 1
	v.Nodes[from].addNext(action, to)
	v.Nodes[to].addPrev(action, from)
	return isNew
}

func (v *VisitGraph) Visits() map[string]int {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	out := make(map[string]int, len(v.Nodes))
	for k, n := range v.Nodes {
		out[k] = n.Visits
	}
	return out
}

// Successors lists the states reached from key, sorted
func (v *VisitGraph) Successors(key string) []string {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	n, ok := v.Nodes[key]
	if !ok {
		return []string{}
	}
	seen := make(map[string]bool)
	for _, next := range n.Next {
		for s := range next {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Record writes the graph as JSON
func (v *VisitGraph) Record(path string) error {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	bs, err := recordJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bs, 0o644)
}
