package mapreduce

import (
	"iter"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTopK is the number of words kept per year.
const DefaultTopK = 100

// realWord matches tokens made only of letters, plus signs, apostrophes and hyphens.
var realWord = regexp.MustCompile(`^[A-Za-z+'-]+$`)

// Candidate is a single (year, word, count) observation taken from one input line.
type Candidate struct {
	Year  int
	Word  string
	Count int64
}

// WordCount is the value half of a Candidate once it has been grouped by year.
type WordCount struct {
	Word  string
	Count int64
}

// Ranked is one output record: a word's position within its year.
// YearTotal is the sum over every word seen for the year, not only the ranked ones.
type Ranked struct {
	Year      int
	Rank      int
	Word      string
	Count     int64
	YearTotal int64
}

// Extract parses one 1-gram line into a Candidate.
// Both corpus schemas are accepted (word, year, match_count, then one or two
// ignored columns). Lines that are not a real word or that fail to parse
// return ok=false; that is an expected outcome, not an error. A negative
// match_count is treated as a parse failure, although mrjob's int() would
// have accepted it and folded it into the year total.
func Extract(line string) (Candidate, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Candidate{}, false
	}

	word := fields[0]
	if !realWord.MatchString(word) {
		return Candidate{}, false
	}

	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return Candidate{}, false
	}
	count, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || count < 0 {
		return Candidate{}, false
	}

	return Candidate{Year: year, Word: word, Count: count}, true
}

// Map adapts Extract to the runner's key/value shape: the year is the key.
func Map(line string) (int, WordCount, bool) {
	c, ok := Extract(line)
	if !ok {
		return 0, WordCount{}, false
	}
	return c.Year, WordCount{Word: c.Word, Count: c.Count}, true
}

// RankTopK returns the k most frequent words of a year in descending count
// order. Equal counts keep the order in which they were delivered. Every
// record carries the total of all counts in values.
func RankTopK(year int, values iter.Seq[WordCount], k int) []Ranked {
	if k <= 0 {
		return nil
	}

	top := newTopN(k)
	var total int64
	for wc := range values {
		total += wc.Count
		top.Offer(wc)
	}

	ordered := top.Sorted()
	if len(ordered) == 0 {
		return nil
	}

	out := make([]Ranked, len(ordered))
	for i, wc := range ordered {
		out[i] = Ranked{
			Year:      year,
			Rank:      i + 1,
			Word:      wc.Word,
			Count:     wc.Count,
			YearTotal: total,
		}
	}
	return out
}

// Reducer returns a reduce function bound to k, in the shape the runner expects.
func Reducer(k int) func(year int, values iter.Seq[WordCount]) []Ranked {
	return func(year int, values iter.Seq[WordCount]) []Ranked {
		return RankTopK(year, values, k)
	}
}
