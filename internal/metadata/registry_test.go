package metadata

import (
	"testing"

	"github.com/google/uuid"
)

func newDesc(name, tags string, size uint64) *FileDescriptor {
	id := uuid.New()
	return &FileDescriptor{
		FileID:        id,
		OriginalName:  name,
		BlobName:      id.String() + ".enc",
		PlaintextSize: size,
		Tags:          tags,
	}
}

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry()
	d := newDesc("report.pdf", "", 1024)
	r.Add(d)

	got, err := r.Get(d.FileID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.OriginalName != "report.pdf" {
		t.Errorf("OriginalName = %q; want %q", got.OriginalName, "report.pdf")
	}

	r.Remove(d.FileID)
	if _, err := r.Get(d.FileID); err == nil {
		t.Error("expected error after Remove")
	}
}

func TestRegistryUpdateTags(t *testing.T) {
	r := NewRegistry()
	d := newDesc("photo.jpg", "", 2048)
	r.Add(d)

	if err := r.UpdateTags(d.FileID, "vacation,2026"); err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}

	got, _ := r.Get(d.FileID)
	if got.Tags != "vacation,2026" {
		t.Errorf("Tags = %q; want %q", got.Tags, "vacation,2026")
	}

	if err := r.UpdateTags(uuid.New(), "x"); err == nil {
		t.Error("expected error updating tags on unknown id")
	}
}

func TestRegistryListCountTotalSize(t *testing.T) {
	r := NewRegistry()
	r.Add(newDesc("a.txt", "", 100))
	r.Add(newDesc("b.txt", "", 200))
	r.Add(newDesc("c.txt", "", 300))

	if r.Count() != 3 {
		t.Errorf("Count() = %d; want 3", r.Count())
	}
	if r.TotalSize() != 600 {
		t.Errorf("TotalSize() = %d; want 600", r.TotalSize())
	}
	if len(r.List()) != 3 {
		t.Errorf("List() length = %d; want 3", len(r.List()))
	}
}

func TestRegistrySearch(t *testing.T) {
	r := NewRegistry()
	r.Add(newDesc("invoice.pdf", "finance,2026", 10))
	r.Add(newDesc("vacation.jpg", "personal", 20))
	r.Add(newDesc("Invoice-copy.pdf", "", 30))

	results := r.Search("invoice")
	if len(results) != 2 {
		t.Errorf("Search(invoice) returned %d results; want 2", len(results))
	}

	results = r.Search("finance")
	if len(results) != 1 {
		t.Errorf("Search(finance) returned %d results; want 1", len(results))
	}

	if len(r.Search("nonexistent")) != 0 {
		t.Error("Search for nonexistent term should return no results")
	}
}

func TestRegistryGetByExtension(t *testing.T) {
	r := NewRegistry()
	r.Add(newDesc("a.txt", "", 1))
	r.Add(newDesc("b.TXT", "", 1))
	r.Add(newDesc("c.pdf", "", 1))

	results := r.GetByExtension("txt")
	if len(results) != 2 {
		t.Errorf("GetByExtension(txt) returned %d; want 2", len(results))
	}

	results = r.GetByExtension(".pdf")
	if len(results) != 1 {
		t.Errorf("GetByExtension(.pdf) returned %d; want 1", len(results))
	}
}

func TestRegistryEmptyQueries(t *testing.T) {
	r := NewRegistry()
	if r.Count() != 0 {
		t.Error("Count() on empty registry should be 0")
	}
	if r.TotalSize() != 0 {
		t.Error("TotalSize() on empty registry should be 0")
	}
	if len(r.List()) != 0 {
		t.Error("List() on empty registry should be empty")
	}
}
