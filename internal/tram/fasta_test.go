package tram

import (
	"path/filepath"
	"reflect"
	"testing"
)

func Test_splitMate(t *testing.T) {
	tests := []struct {
		title string
		base  string
		mate  int
	}{
		{"read1/1", "read1", 1},
		{"read1/2", "read1", 2},
		{"frag_9.1", "frag_9", 1},
		{"frag_9.2", "frag_9", 2},
		{"pair_3_1", "pair_3", 1},
		{"M0001:42:000:1:1101:1111:2222 1:N:0:ATCACG", "M0001:42:000:1:1101:1111:2222", 1},
		{"M0001:42:000:1:1101:1111:2222 2:N:0:ATCACG", "M0001:42:000:1:1101:1111:2222", 2},
		{"solo_read", "solo_read", 0},
		{"described read extra words", "described", 0},
	}

	for _, tt := range tests {
		base, mate := splitMate(tt.title)
		if base != tt.base || mate != tt.mate {
			t.Errorf("splitMate(%q) = (%q, %d), want (%q, %d)", tt.title, base, mate, tt.base, tt.mate)
		}
	}
}

func Test_reverseComplement(t *testing.T) {
	tests := []struct {
		seq  string
		want string
	}{
		{"ATGC", "GCAT"},
		{"AAAA", "TTTT"},
		{"ATGCRYKM", "KMRYGCAT"},
		{"atgc", "gcat"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := reverseComplement(tt.seq); got != tt.want {
			t.Errorf("reverseComplement(%q) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func Test_writeFasta_roundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqs.fasta")

	reads := []Read{
		{Name: "a", Seq: "ACGT"},
		{Name: "b", Seq: "GGGG"},
	}

	if err := writeFasta(path, reads); err != nil {
		t.Fatalf("failed to write fasta: %v", err)
	}

	got, err := readFasta(path)
	if err != nil {
		t.Fatalf("failed to read fasta: %v", err)
	}

	if !reflect.DeepEqual(got, reads) {
		t.Errorf("round trip = %v, want %v", got, reads)
	}
}

func Test_firstField(t *testing.T) {
	if got := firstField("contig_1 length=88 cov=12"); got != "contig_1" {
		t.Errorf("firstField = %q, want contig_1", got)
	}
}
