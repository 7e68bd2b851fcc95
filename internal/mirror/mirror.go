// Package mirror turns collection snapshots into ordered, displayable lists.
// A snapshot always replaces the previous list wholesale.
package mirror

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/common"
)

// Snapshot is the full contents of one collection keyed by record key.
type Snapshot map[string]map[string]any

// Record is one snapshot entry carrying its key as ID.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Less orders two records.
type Less func(a, b Record) bool

// Records converts s into an unordered list. A nil or empty snapshot gives an
// empty, non-nil list.
func Records(s Snapshot) []Record {
	out := make([]Record, 0, len(s))
	for id, fields := range s {
		if fields == nil {
			fields = map[string]any{}
		}
		out = append(out, Record{ID: id, Fields: fields})
	}
	return out
}

// Sorted returns a sorted copy of records.
func Sorted(records []Record, less Less) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ByCreatedAtDesc puts the newest createdAt first. Records without a
// parseable createdAt go last.
func ByCreatedAtDesc(a, b Record) bool {
	return desc(timeField(a.Fields["createdAt"]), timeField(b.Fields["createdAt"]), a, b)
}

// ByTimestampDesc puts the largest numeric timestamp first.
func ByTimestampDesc(a, b Record) bool {
	return desc(numberField(a.Fields["timestamp"]), numberField(b.Fields["timestamp"]), a, b)
}

// ComparatorFor returns the display order used for collection. registrations
// names the registration collection, which is ordered by timestamp.
func ComparatorFor(collection, registrations string) Less {
	if collection == registrations {
		return ByTimestampDesc
	}
	return ByCreatedAtDesc
}

func desc(x, y float64, a, b Record) bool {
	if x != y {
		return x > y
	}
	return a.ID > b.ID
}

func timeField(v any) float64 {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return -1
		}
		return float64(parsed.UnixNano())
	case time.Time:
		return float64(t.UnixNano())
	default:
		return -1
	}
}

func numberField(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return -1
		}
		return f
	default:
		return -1
	}
}

// Columns is the sorted union of field names across records.
func Columns(records []Record) []string {
	seen := map[string]struct{}{}
	for _, r := range records {
		for k := range r.Fields {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Format renders a field value for a table cell.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// State of a mirrored view.
type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "failed"
	}
}

// View is what a renderer shows.
type View struct {
	State   State    `json:"-"`
	Items   []Record `json:"items"`
	Message string   `json:"message,omitempty"`
}

// Mirror keeps the latest ordered view of one collection.
type Mirror struct {
	less Less

	mu      sync.Mutex
	state   State
	items   []Record
	message string
}

func New(less Less) *Mirror {
	return &Mirror{less: less, items: []Record{}}
}

// Apply replaces the items with the ordered contents of s and clears any
// failure.
func (m *Mirror) Apply(s Snapshot) View {
	items := Sorted(Records(s), m.less)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
	m.state = Ready
	m.message = ""
	return m.viewLocked()
}

// Fail switches to the failed state with a readable message.
func (m *Mirror) Fail(err error) View {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Failed
	m.message = Message(err)
	return m.viewLocked()
}

func (m *Mirror) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

func (m *Mirror) viewLocked() View {
	return View{State: m.state, Items: m.items, Message: m.message}
}

// Message renders err for people.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch common.KindOf(err) {
	case common.KindNetwork:
		return "Connection to the data store failed: " + err.Error()
	case common.KindPermission:
		return "Permission denied: " + err.Error()
	case common.KindNotFound:
		return "Collection not found: " + err.Error()
	default:
		return "Error loading data: " + err.Error()
	}
}
