package library

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

const perrette2011 = `@article{Perrette_2011,
 author = {M. Perrette and A. Yool and G. D. Quartly and E. E. Popova},
 doi = {10.5194/bg-8-515-2011},
 journal = {Biogeosciences},
 title = {Near-ubiquity of ice-edge blooms in the Arctic},
 year = {2011}
}`

const someOneElse2000 = `@article{SomeOneElse2000,
 author = {Some One},
 doi = {10.5194/xxxx},
 title = {Interesting Stuff},
 year = {2000}
}`

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func mustRecord(t *testing.T, text string) *Record {
	t.Helper()
	records, err := ParseRecords(text)
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ParseRecords() returned %d records, want 1", len(records))
	}
	return records[0]
}

func newRecord(id, year string) *Record {
	r := NewRecord("article", id)
	r.SetField(FieldYear, year)
	return r
}

func keysOf(lib *Library) []string {
	var keys []string
	for _, r := range lib.Records() {
		keys = append(keys, r.Key())
	}
	return keys
}

func TestParseRecords(t *testing.T) {
	records, err := ParseRecords(perrette2011 + "\n\n" + someOneElse2000)
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	r := records[0]
	if r.ID() != "Perrette_2011" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Key() != "perrette_2011" {
		t.Errorf("Key() = %q", r.Key())
	}
	if r.Type() != "article" {
		t.Errorf("Type() = %q", r.Type())
	}
	if got := r.Field("DOI"); got != "10.5194/bg-8-515-2011" {
		t.Errorf("Field(DOI) = %q", got)
	}
	if got := r.Field("year"); got != "2011" {
		t.Errorf("Field(year) = %q", got)
	}
	if r.HasField("file") {
		t.Error("HasField(file) = true for record without files")
	}
}

func TestParseRecords_Empty(t *testing.T) {
	records, err := ParseRecords("  \n")
	if err != nil {
		t.Fatalf("ParseRecords() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestSetField_ReplacesOtherSpelling(t *testing.T) {
	r := NewRecord("article", "x2020")
	r.SetField("Year", "2019")
	r.SetField("year", "2020")

	if got := r.Field("YEAR"); got != "2020" {
		t.Errorf("Field() = %q, want 2020", got)
	}
	if n := len(r.Fields()); n != 1 {
		t.Errorf("len(Fields()) = %d, want 1", n)
	}
}

func TestIndex_SearchAndInsert(t *testing.T) {
	ix := NewIndex([]*Record{newRecord("b", "1"), newRecord("D", "1"), newRecord("a", "1")})

	if got := ix.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
		t.Fatalf("Keys() = %v", got)
	}

	i, found := ix.Search("c")
	if found || i != 2 {
		t.Errorf("Search(c) = %d, %v; want 2, false", i, found)
	}
	ix.InsertAt(i, newRecord("C", "1"))

	if got := ix.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Keys() after insert = %v", got)
	}

	i, found = ix.Search("d")
	if !found || i != 3 {
		t.Errorf("Search(d) = %d, %v; want 3, true", i, found)
	}
	if ix.At(i).ID() != "D" {
		t.Errorf("At(3).ID() = %q", ix.At(i).ID())
	}
}

func TestInsert_NewEntriesStaySorted(t *testing.T) {
	lib := New("unused.bib", "files", WithLogger(quietLogger()))

	ids := []string{"Smith2020", "adams1999", "Zhou2001", "miller2010", "Baker2005", "smith2019"}
	for _, id := range ids {
		got, inserted := lib.Insert(newRecord(id, "2000"), false)
		if !inserted || got.ID() != id {
			t.Fatalf("Insert(%s) = %v, %v", id, got.ID(), inserted)
		}

		keys := keysOf(lib)
		if !sort.StringsAreSorted(keys) {
			t.Fatalf("keys not sorted after inserting %s: %v", id, keys)
		}
	}

	if lib.Len() != len(ids) {
		t.Errorf("Len() = %d, want %d", lib.Len(), len(ids))
	}
}

func TestInsert_DuplicateIsIdempotent(t *testing.T) {
	lib := New("unused.bib", "files", WithLogger(quietLogger()))

	first := newRecord("Smith2020", "2020")
	first.SetField("title", "Original")
	lib.Insert(first, false)
	lib.Insert(newRecord("Other2001", "2001"), false)
	before := lib.Records()

	dup := newRecord("SMITH2020", "2021")
	dup.SetField("title", "Duplicate")
	got, inserted := lib.Insert(dup, false)

	if inserted {
		t.Error("Insert() reported duplicate as inserted")
	}
	if got != first {
		t.Error("Insert() should return the existing record")
	}
	if lib.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lib.Len())
	}
	if !reflect.DeepEqual(lib.Records(), before) {
		t.Errorf("collection changed after duplicate insert: %v", keysOf(lib))
	}
	if first.Field("title") != "Original" || first.Field("year") != "2020" {
		t.Errorf("existing record modified: title=%q year=%q", first.Field("title"), first.Field("year"))
	}
}

func TestInsert_Replace(t *testing.T) {
	lib := New("unused.bib", "files", WithLogger(quietLogger()))
	lib.Insert(newRecord("Smith2020", "2020"), false)

	repl := newRecord("smith2020", "2021")
	got, inserted := lib.Insert(repl, true)
	if !inserted || got != repl {
		t.Fatalf("Insert(replace) = %v, %v", got, inserted)
	}
	if lib.Len() != 1 {
		t.Errorf("Len() = %d, want 1", lib.Len())
	}

	stored, ok := lib.Get("SMITH2020")
	if !ok || stored.Field("year") != "2021" {
		t.Errorf("Get() = %v, %v; want replaced record", stored, ok)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "myref.bib")
	lib, err := Open(path, "files", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if lib.Len() != 0 {
		t.Errorf("Len() = %d, want 0", lib.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Open() should not create the file")
	}
}

func TestOpen_SortsLoadedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "myref.bib")
	if err := os.WriteFile(path, []byte(someOneElse2000+"\n\n"+perrette2011), 0644); err != nil {
		t.Fatal(err)
	}

	lib, err := Open(path, "files", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := keysOf(lib); !reflect.DeepEqual(got, []string{"perrette_2011", "someoneelse2000"}) {
		t.Errorf("keys = %v", got)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "myref.bib")

	lib := New(path, "files", WithLogger(quietLogger()))
	lib.Insert(mustRecord(t, someOneElse2000), false)
	r := mustRecord(t, perrette2011)
	SetFiles(r, []string{"/papers/bg-8-515-2011.pdf"}, true)
	lib.Insert(r, false)

	if err := lib.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := Open(path, "files", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reloaded.Len())
	}

	got, ok := reloaded.Get("perrette_2011")
	if !ok {
		t.Fatal("Get(perrette_2011) not found after reload")
	}
	if got.Field("title") != "Near-ubiquity of ice-edge blooms in the Arctic" {
		t.Errorf("title = %q", got.Field("title"))
	}
	want := []File{{Path: "/papers/bg-8-515-2011.pdf", Type: "pdf"}}
	if files := GetFiles(got); !reflect.DeepEqual(files, want) {
		t.Errorf("GetFiles() = %v, want %v", files, want)
	}
}

func TestSave_OverwritesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "myref.bib")
	if err := os.WriteFile(path, []byte(strings.Repeat("% stale\n", 100)), 0644); err != nil {
		t.Fatal(err)
	}

	lib := New(path, "files", WithLogger(quietLogger()))
	lib.Insert(mustRecord(t, someOneElse2000), false)
	if err := lib.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("Save() left previous content in the file")
	}
	if !strings.Contains(string(data), "SomeOneElse2000") {
		t.Errorf("Save() output missing entry:\n%s", data)
	}
}
