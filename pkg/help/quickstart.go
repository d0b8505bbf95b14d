package help

const QuickstartYAML = `# ngram-year-rank Quick Start

input:
  schemas: |
    2009: word TAB year TAB match_count TAB page_count TAB volume_count
    2012: word TAB year TAB match_count TAB volume_count
  notes: "Only word, year and match_count are read. Lines whose word is not made of letters, + ' or - are skipped."
  sources: "files, directories, globs, http(s) URLs, or - for stdin; .gz detected automatically"

runners:
  local: "Parallel map workers and reduce partitions (default)"
  inline: "Single goroutine, useful for debugging"

output_formats:
  text: 'year TAB ["word",count,year_total] (default)'
  tsv: "year TAB word TAB count TAB year_total"
  jsonl: "one JSON object per record"
  yaml: "records grouped by year"
  sqlite: "year_rankings table keyed by run_id"

commands:
  basic_run: |
    ngram-year-rank run googlebooks-eng-all-1gram-20120701-x.gz

  save_without_streaming: |
    ngram-year-rank run -o word-prob-x --no-output googlebooks-eng-all-1gram-20120701-x.gz

  remote_input: |
    ngram-year-rank run -o word-prob-q --format jsonl \
      http://storage.googleapis.com/books/ngrams/books/googlebooks-eng-all-1gram-20120701-q.gz

  sqlite: |
    ngram-year-rank run --format sqlite --db rankings.db --no-output corpus/

  job_file: |
    ngram-year-rank run --config job.yaml

job_file_example: |
  inputs:
    - corpus/
  runner: local
  workers: 8
  top: 100
  format: tsv
  output_dir: results
  no_output: true
`
