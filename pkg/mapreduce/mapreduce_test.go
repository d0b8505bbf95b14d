package mapreduce

import (
	"fmt"
	"slices"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   Candidate
		wantOK bool
	}{
		{
			name:   "legacy five field schema",
			line:   "dog\t1950\t120\t45\t30",
			want:   Candidate{Year: 1950, Word: "dog", Count: 120},
			wantOK: true,
		},
		{
			name:   "current four field schema",
			line:   "dog\t1950\t120\t30",
			want:   Candidate{Year: 1950, Word: "dog", Count: 120},
			wantOK: true,
		},
		{
			name:   "space separated",
			line:   "dog 1950 120 45 30",
			want:   Candidate{Year: 1950, Word: "dog", Count: 120},
			wantOK: true,
		},
		{
			name:   "apostrophe hyphen and plus are allowed",
			line:   "rock'n-roll+\t1977\t9\t3",
			want:   Candidate{Year: 1977, Word: "rock'n-roll+", Count: 9},
			wantOK: true,
		},
		{
			name:   "three fields are enough",
			line:   "Cat\t1801\t0",
			want:   Candidate{Year: 1801, Word: "Cat", Count: 0},
			wantOK: true,
		},
		{name: "empty line", line: ""},
		{name: "only whitespace", line: " \t "},
		{name: "digits in word", line: "dog2\t1950\t120\t30"},
		{name: "pure number", line: "1950\t1950\t120\t30"},
		{name: "trailing period", line: "dog.\t1950\t120\t30"},
		{name: "part of speech tag", line: "dog_NOUN\t1950\t120\t30"},
		{name: "non ascii letter", line: "café\t1950\t120\t30"},
		{name: "quote", line: "\"dog\"\t1950\t120\t30"},
		{name: "one field", line: "dog"},
		{name: "two fields", line: "dog\t1950"},
		{name: "non numeric year", line: "dog\tnineteen\t120\t30"},
		{name: "non numeric count", line: "dog\t1950\tmany\t30"},
		{name: "fractional count", line: "dog\t1950\t1.5\t30"},
		{name: "negative count", line: "dog\t1950\t-4\t30"},
		{name: "count overflows int64", line: "dog\t1950\t99999999999999999999\t30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	lines := []string{"dog\t1950\t120\t30", "dog2\t1950\t120\t30", "dog"}
	for _, line := range lines {
		first, ok1 := Extract(line)
		second, ok2 := Extract(line)
		if first != second || ok1 != ok2 {
			t.Errorf("Extract(%q) not stable: (%+v, %v) then (%+v, %v)", line, first, ok1, second, ok2)
		}
	}
}

func TestMap(t *testing.T) {
	year, wc, ok := Map("fox\t2000\t10\t2")
	if !ok {
		t.Fatal("Map() ok = false, want true")
	}
	if year != 2000 || wc != (WordCount{Word: "fox", Count: 10}) {
		t.Errorf("Map() = %d, %+v", year, wc)
	}

	if _, _, ok := Map("fox 2000"); ok {
		t.Error("Map() ok = true for short line, want false")
	}
}

func TestRankTopK_OrdersByCountWithSharedTotal(t *testing.T) {
	values := []WordCount{{"dog", 120}, {"cat", 300}, {"fox", 10}}

	got := RankTopK(1950, slices.Values(values), DefaultTopK)
	want := []Ranked{
		{Year: 1950, Rank: 1, Word: "cat", Count: 300, YearTotal: 430},
		{Year: 1950, Rank: 2, Word: "dog", Count: 120, YearTotal: 430},
		{Year: 1950, Rank: 3, Word: "fox", Count: 10, YearTotal: 430},
	}
	if !slices.Equal(got, want) {
		t.Errorf("RankTopK() = %+v, want %+v", got, want)
	}
}

func TestRankTopK_Truncates(t *testing.T) {
	tests := []struct {
		name      string
		words     int
		wantCount int
	}{
		{name: "more words than k", words: 150, wantCount: 100},
		{name: "exactly k words", words: 100, wantCount: 100},
		{name: "fewer words than k", words: 5, wantCount: 5},
		{name: "single word", words: 1, wantCount: 1},
		{name: "no words", words: 0, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var values []WordCount
			var total int64
			for i := 0; i < tt.words; i++ {
				c := int64(i*7%31 + 1)
				values = append(values, WordCount{Word: fmt.Sprintf("w%d", i), Count: c})
				total += c
			}

			got := RankTopK(1900, slices.Values(values), DefaultTopK)
			if len(got) != tt.wantCount {
				t.Fatalf("RankTopK() returned %d records, want %d", len(got), tt.wantCount)
			}

			var emitted int64
			for i, r := range got {
				if r.YearTotal != total {
					t.Errorf("record %d YearTotal = %d, want %d", i, r.YearTotal, total)
				}
				if r.Rank != i+1 {
					t.Errorf("record %d Rank = %d, want %d", i, r.Rank, i+1)
				}
				if i > 0 && got[i-1].Count < r.Count {
					t.Errorf("records %d and %d out of order: %d < %d", i-1, i, got[i-1].Count, r.Count)
				}
				emitted += r.Count
			}

			if emitted > total {
				t.Errorf("emitted sum %d exceeds year total %d", emitted, total)
			}
			if tt.words <= DefaultTopK && emitted != total {
				t.Errorf("emitted sum %d != year total %d with %d words", emitted, total, tt.words)
			}
			if tt.words > DefaultTopK && emitted == total {
				t.Errorf("emitted sum equals year total with %d words, want strictly less", tt.words)
			}
		})
	}
}

func TestRankTopK_MatchesStableSort(t *testing.T) {
	// Many ties: the result must equal a stable descending sort truncated to k.
	var values []WordCount
	for i := 0; i < 500; i++ {
		values = append(values, WordCount{Word: fmt.Sprintf("w%03d", i), Count: int64(i % 9)})
	}

	sorted := slices.Clone(values)
	slices.SortStableFunc(sorted, func(a, b WordCount) int {
		switch {
		case a.Count > b.Count:
			return -1
		case a.Count < b.Count:
			return 1
		}
		return 0
	})

	for _, k := range []int{1, 10, 100, 499, 500, 1000} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			got := RankTopK(7, slices.Values(values), k)
			want := sorted[:min(k, len(sorted))]
			if len(got) != len(want) {
				t.Fatalf("len = %d, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i].Word != want[i].Word || got[i].Count != want[i].Count {
					t.Fatalf("position %d = %s:%d, want %s:%d", i, got[i].Word, got[i].Count, want[i].Word, want[i].Count)
				}
			}
		})
	}
}

func TestRankTopK_NonPositiveK(t *testing.T) {
	values := []WordCount{{"dog", 1}}
	if got := RankTopK(1950, slices.Values(values), 0); got != nil {
		t.Errorf("RankTopK(k=0) = %+v, want nil", got)
	}
}

func TestReducer(t *testing.T) {
	reduce := Reducer(2)
	got := reduce(2001, slices.Values([]WordCount{{"a", 1}, {"b", 2}, {"c", 3}}))
	if len(got) != 2 || got[0].Word != "c" || got[1].Word != "b" || got[0].YearTotal != 6 {
		t.Errorf("Reducer(2) = %+v", got)
	}
}
