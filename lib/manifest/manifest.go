package manifest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ValentinKolb/connectkit/lib/codec"
)

// Entry describes one state value of the remote simulator
type Entry struct {
	ID   int32
	Name string
	Kind codec.Kind
}

func (e Entry) String() string {
	return fmt.Sprintf("%d,%d,%s", e.ID, int32(e.Kind), e.Name)
}

// Manifest is an immutable, id-sorted snapshot of the state schema
type Manifest struct {
	entries []Entry
	byName  map[string]int
	skipped int
}

// Empty is the manifest used before the first manifest frame arrived
var Empty = New(nil)

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

// New builds a manifest from the given entries. The slice is copied.
func New(entries []Entry) *Manifest {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byName := make(map[string]int, len(sorted))
	for i, e := range sorted {
		byName[e.Name] = i // last writer wins
	}

	return &Manifest{entries: sorted, byName: byName}
}

// Parse builds a manifest from the manifest text. Malformed lines are
// skipped and counted (see Skipped); Parse never fails.
func Parse(text string) *Manifest {
	return Rebuild(splitNonEmpty(text, '\n'))
}

// Rebuild builds a manifest from individual `id,kind,name` lines
func Rebuild(lines []string) *Manifest {
	entries := make([]Entry, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		e, ok := parseLine(line)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	m := New(entries)
	m.skipped = skipped
	return m
}

// Decode parses a manifest frame payload (a length prefixed UTF-8 string)
func Decode(payload []byte) (*Manifest, error) {
	text, _, err := codec.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest payload: %w", err)
	}
	return Parse(text), nil
}

// Encode renders the manifest as frame payload
func (m *Manifest) Encode() ([]byte, error) {
	var sb strings.Builder
	for _, e := range m.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return codec.AppendString(nil, sb.String())
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// FindByID returns the entry with the given id. If several entries share the
// id, the first one in arrival order is returned.
func (m *Manifest) FindByID(id int32) (Entry, bool) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].ID >= id })
	if i < len(m.entries) && m.entries[i].ID == id {
		return m.entries[i], true
	}
	return Entry{}, false
}

// FindByName returns the entry registered under name
func (m *Manifest) FindByName(name string) (Entry, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Entries returns a copy of all entries sorted by id
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries
func (m *Manifest) Len() int { return len(m.entries) }

// Skipped returns the number of malformed lines dropped while parsing
func (m *Manifest) Skipped() int { return m.skipped }

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLine parses a single `id,kind,name` record
func parseLine(line string) (Entry, bool) {
	fields := splitNonEmpty(line, ',')
	if len(fields) < 3 {
		return Entry{}, false
	}
	id, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return Entry{}, false
	}
	tag, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return Entry{}, false
	}
	return Entry{ID: int32(id), Name: fields[2], Kind: codec.KindFromTag(int32(tag))}, true
}

// splitNonEmpty splits s at sep and drops empty pieces
func splitNonEmpty(s string, sep rune) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == sep })
}
