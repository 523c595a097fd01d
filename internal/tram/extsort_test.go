package tram

import (
	"path/filepath"
	"reflect"
	"testing"
)

func Test_sorter_spillAndMerge(t *testing.T) {
	dir := t.TempDir()

	// limit of 3 forces multiple spill chunks
	s := newSorter(dir, "t", 3)

	input := []Read{
		{"zulu", "AAA"},
		{"mike", "CCC"},
		{"alpha", "GGG"},
		{"yankee", "TTT"},
		{"bravo", "ACA"},
		{"november", "GTG"},
		{"charlie", "CTC"},
	}
	for _, r := range input {
		if err := s.add(r); err != nil {
			t.Fatalf("failed to add record: %v", err)
		}
	}

	if s.count() != len(input) {
		t.Fatalf("count = %d, want %d", s.count(), len(input))
	}

	out := filepath.Join(dir, "sorted.fasta")
	if err := s.merge(out); err != nil {
		t.Fatalf("failed to merge: %v", err)
	}

	got, err := readFasta(out)
	if err != nil {
		t.Fatalf("failed to read merged output: %v", err)
	}

	want := []Read{
		{"alpha", "GGG"},
		{"bravo", "ACA"},
		{"charlie", "CTC"},
		{"mike", "CCC"},
		{"november", "GTG"},
		{"yankee", "TTT"},
		{"zulu", "AAA"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged output = %v, want %v", got, want)
	}
}

func Test_sorter_empty(t *testing.T) {
	dir := t.TempDir()
	s := newSorter(dir, "t", 0)

	out := filepath.Join(dir, "empty.fasta")
	if err := s.merge(out); err != nil {
		t.Fatalf("failed to merge empty sorter: %v", err)
	}

	got, err := readFasta(out)
	if err != nil {
		t.Fatalf("failed to read merged output: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("merged %d records from an empty sorter", len(got))
	}
}
