package manifest

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/ValentinKolb/connectkit/lib/codec"
)

// TestParseSortsAndIndexes tests the basic manifest example
func TestParseSortsAndIndexes(t *testing.T) {
	m := Parse("5,1,Throttle\n2,4,Callsign\n")

	want := []Entry{
		{ID: 2, Name: "Callsign", Kind: codec.KindString},
		{ID: 5, Name: "Throttle", Kind: codec.KindInt32},
	}
	if got := m.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}

	e, ok := m.FindByName("Throttle")
	if !ok || e.ID != 5 {
		t.Errorf("FindByName(Throttle) = %v, %v", e, ok)
	}
	e, ok = m.FindByID(2)
	if !ok || e.Kind != codec.KindString {
		t.Errorf("FindByID(2) = %v, %v", e, ok)
	}
	if _, ok := m.FindByID(3); ok {
		t.Errorf("FindByID(3) found an entry, want none")
	}
}

// TestParseSkipsMalformedLines tests tolerance to broken records
func TestParseSkipsMalformedLines(t *testing.T) {
	text := "abc\n1,2\n3,x,Name\ny,1,Other\n7,3,Valid\n\n\n8,,9,Spaced\n"
	m := Parse(text)

	want := []Entry{
		{ID: 7, Name: "Valid", Kind: codec.KindFloat64},
		// empty fields are dropped, so "9" becomes the kind and "Spaced" the name
		{ID: 8, Name: "Spaced", Kind: codec.KindUnknown},
	}
	if got := m.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}
	if m.Skipped() != 4 {
		t.Errorf("Skipped() = %d, want 4", m.Skipped())
	}
}

// TestParseExtraFieldsIgnored tests that only the third field is the name
func TestParseExtraFieldsIgnored(t *testing.T) {
	m := Parse("1,0,aircraft/0/lights,extra\n")
	e, ok := m.FindByID(1)
	if !ok || e.Name != "aircraft/0/lights" {
		t.Errorf("FindByID(1) = %v, %v", e, ok)
	}
}

// TestParseEmpty tests that a manifest without valid lines is empty, not an error
func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "\n\n", "garbage"} {
		if m := Parse(text); m.Len() != 0 {
			t.Errorf("Parse(%q).Len() = %d, want 0", text, m.Len())
		}
	}
}

// TestDuplicates tests duplicate ids and names
func TestDuplicates(t *testing.T) {
	m := Parse("4,1,Alpha\n4,2,Beta\n1,0,Alpha\n")

	// stable sort keeps arrival order for equal ids
	want := []Entry{
		{ID: 1, Name: "Alpha", Kind: codec.KindBool},
		{ID: 4, Name: "Alpha", Kind: codec.KindInt32},
		{ID: 4, Name: "Beta", Kind: codec.KindFloat32},
	}
	if got := m.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}

	// name resolves to the last entry in sorted order
	e, _ := m.FindByName("Alpha")
	if e.ID != 4 || e.Kind != codec.KindInt32 {
		t.Errorf("FindByName(Alpha) = %v, want id 4 int32", e)
	}

	e, _ = m.FindByID(4)
	if e.Name != "Alpha" {
		t.Errorf("FindByID(4) = %v, want first entry", e)
	}
	if e, ok := m.FindByID(1); !ok || e.Name != "Alpha" {
		t.Errorf("FindByID(1) = %v, %v", e, ok)
	}
}

// TestFindByIDAllSizes tests the binary search for every manifest size up to 64
func TestFindByIDAllSizes(t *testing.T) {
	for n := 0; n <= 64; n++ {
		entries := make([]Entry, n)
		for i := range entries {
			// reverse order to exercise sorting
			entries[i] = Entry{ID: int32((n - i) * 3), Name: fmt.Sprintf("v%d", i), Kind: codec.KindInt32}
		}
		m := New(entries)

		for _, e := range entries {
			got, ok := m.FindByID(e.ID)
			if !ok || got != e {
				t.Fatalf("n=%d: FindByID(%d) = %v, %v", n, e.ID, got, ok)
			}
			if _, ok := m.FindByID(e.ID + 1); ok {
				t.Fatalf("n=%d: FindByID(%d) found an entry", n, e.ID+1)
			}
		}
		if _, ok := m.FindByID(-5); ok {
			t.Fatalf("n=%d: FindByID(-5) found an entry", n)
		}
	}
}

// TestDecodeEncode tests frame payload handling
func TestDecodeEncode(t *testing.T) {
	payload := []byte{12, 0, 0, 0}
	payload = append(payload, "0,1,Altitude"...)

	m, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if e, ok := m.FindByName("Altitude"); !ok || e.ID != 0 || e.Kind != codec.KindInt32 {
		t.Fatalf("FindByName(Altitude) = %v, %v", e, ok)
	}

	encoded, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	again, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	if !reflect.DeepEqual(again.Entries(), m.Entries()) {
		t.Errorf("entries changed: %v vs %v", again.Entries(), m.Entries())
	}

	if _, err := Decode([]byte{1, 0}); err == nil {
		t.Errorf("Decode(short) succeeded, want error")
	}
	if _, err := Decode([]byte{2, 0, 0, 0, 0xff, 0xfe}); err == nil {
		t.Errorf("Decode(invalid utf8) succeeded, want error")
	}
}

// TestEntriesIsACopy tests that callers cannot mutate a snapshot
func TestEntriesIsACopy(t *testing.T) {
	m := Parse("1,1,A\n")
	entries := m.Entries()
	entries[0].Name = "changed"
	if e, _ := m.FindByID(1); e.Name != "A" {
		t.Errorf("snapshot was modified: %v", e)
	}
}
