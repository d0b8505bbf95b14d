// Package sink serializes ranked records to a stream.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/ngram-year-rank/models"
	"github.com/dtnitsch/ngram-year-rank/pkg/mapreduce"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink receives ranked records. Close flushes buffered output but never
// closes the underlying writer.
type Sink interface {
	Write(r mapreduce.Ranked) error
	Close() error
}

// New returns a Sink writing format to w. SQLite output is not a stream
// and is handled by the db package.
func New(format models.OutputFormat, w io.Writer) (Sink, error) {
	bw := bufio.NewWriter(w)
	switch format {
	case models.FormatText, "":
		return &textSink{w: bw}, nil
	case models.FormatTSV:
		return &tsvSink{w: bw}, nil
	case models.FormatJSONL:
		return &jsonlSink{w: bw, enc: json.NewEncoder(bw)}, nil
	case models.FormatYAML:
		return &yamlSink{w: bw}, nil
	}
	return nil, fmt.Errorf("format %q cannot be streamed", format)
}

// textSink writes the key and value of each record as JSON separated by a tab:
// 1950	["cat",300,430]
type textSink struct {
	w *bufio.Writer
}

func (s *textSink) Write(r mapreduce.Ranked) error {
	value, err := json.Marshal([]any{r.Word, r.Count, r.YearTotal})
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	s.w.WriteString(strconv.Itoa(r.Year))
	s.w.WriteByte('\t')
	s.w.Write(value)
	return s.w.WriteByte('\n')
}

func (s *textSink) Close() error { return s.w.Flush() }

type tsvSink struct {
	w *bufio.Writer
}

func (s *tsvSink) Write(r mapreduce.Ranked) error {
	_, err := fmt.Fprintf(s.w, "%d\t%s\t%d\t%d\n", r.Year, r.Word, r.Count, r.YearTotal)
	return err
}

func (s *tsvSink) Close() error { return s.w.Flush() }

// Record is the JSON shape of one ranked word.
type Record struct {
	Year      int    `json:"year"`
	Rank      int    `json:"rank"`
	Word      string `json:"word"`
	Count     int64  `json:"count"`
	YearTotal int64  `json:"year_total"`
}

type jsonlSink struct {
	w   *bufio.Writer
	enc *jsoniter.Encoder
}

func (s *jsonlSink) Write(r mapreduce.Ranked) error {
	return s.enc.Encode(Record{
		Year:      r.Year,
		Rank:      r.Rank,
		Word:      r.Word,
		Count:     r.Count,
		YearTotal: r.YearTotal,
	})
}

func (s *jsonlSink) Close() error { return s.w.Flush() }

// YearDoc is the YAML shape of one year's ranking.
type YearDoc struct {
	Year  int       `yaml:"year"`
	Total int64     `yaml:"total"`
	Words []WordDoc `yaml:"words"`
}

// WordDoc is one ranked word inside a YearDoc.
type WordDoc struct {
	Rank  int    `yaml:"rank"`
	Word  string `yaml:"word"`
	Count int64  `yaml:"count"`
}

// yamlSink buffers records and writes them grouped by year on Close,
// years ascending. The buffer holds at most top-k records per year.
type yamlSink struct {
	w     *bufio.Writer
	years map[int]*YearDoc
}

func (s *yamlSink) Write(r mapreduce.Ranked) error {
	if s.years == nil {
		s.years = make(map[int]*YearDoc)
	}
	doc, ok := s.years[r.Year]
	if !ok {
		doc = &YearDoc{Year: r.Year, Total: r.YearTotal}
		s.years[r.Year] = doc
	}
	doc.Words = append(doc.Words, WordDoc{Rank: r.Rank, Word: r.Word, Count: r.Count})
	return nil
}

func (s *yamlSink) Close() error {
	docs := make([]YearDoc, 0, len(s.years))
	for _, doc := range s.years {
		docs = append(docs, *doc)
	}
	slices.SortFunc(docs, func(a, b YearDoc) int { return a.Year - b.Year })

	enc := yaml.NewEncoder(s.w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return s.w.Flush()
}

// Multi fans every record out to several sinks.
type Multi []Sink

func (m Multi) Write(r mapreduce.Ranked) error {
	for _, s := range m {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
