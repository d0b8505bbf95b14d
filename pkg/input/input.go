// Package input streams lines from corpus files: local paths, directories,
// globs, stdin ("-") and http(s) URLs. Gzip files are detected by their magic
// bytes and decompressed on the fly.
package input

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dtnitsch/ngram-year-rank/pkg/fetcher"
)

// Stdin is the path that reads standard input.
const Stdin = "-"

// maxLineBytes bounds a single input line. Longer lines are skipped.
const maxLineBytes = 1 << 20

// Expand resolves directories and glob patterns into a sorted list of files.
// Stdin and remote URLs pass through unchanged.
func Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		switch {
		case p == Stdin, fetcher.IsRemote(p):
			files = append(files, p)

		case strings.ContainsAny(p, "*?["):
			matches, err := filepath.Glob(p)
			if err != nil {
				return nil, fmt.Errorf("bad glob %q: %w", p, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("glob %q matched no files", p)
			}
			slices.Sort(matches)
			files = append(files, matches...)

		default:
			info, err := os.Stat(p)
			if err != nil {
				return nil, fmt.Errorf("failed to stat input: %w", err)
			}
			if !info.IsDir() {
				files = append(files, p)
				continue
			}
			dirFiles, err := walkDir(p)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
		}
	}
	return files, nil
}

// walkDir lists regular files under dir, skipping hidden entries.
func walkDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	slices.Sort(files)
	return files, nil
}

// Reader streams the lines of a fixed list of inputs, in order.
type Reader struct {
	paths   []string
	fetcher *fetcher.Fetcher
	logger  *slog.Logger
	stdin   io.Reader
}

// NewReader returns a Reader over paths, which should already be expanded.
// f may be nil when no path is remote.
func NewReader(paths []string, f *fetcher.Fetcher, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{
		paths:   paths,
		fetcher: f,
		logger:  logger,
		stdin:   os.Stdin,
	}
}

// Each calls fn for every line of every input. It stops at the first error
// from fn, from reading, or from ctx.
func (r *Reader) Each(ctx context.Context, fn func(line string) error) error {
	for _, path := range r.paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Info("Reading input", "path", path)
		if err := r.eachInFile(ctx, path, fn); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func (r *Reader) eachInFile(ctx context.Context, path string, fn func(string) error) error {
	rc, err := r.open(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()

	body, err := decompress(rc)
	if err != nil {
		return err
	}

	br := bufio.NewReaderSize(body, 64*1024)
	var n int
	for {
		line, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		n++
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if tooLong {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	r.logger.Debug("Finished input", "path", path, "lines", n)
	return nil
}

// readLine returns the next line without its line ending. A line longer than
// maxLineBytes is consumed and discarded, and comes back with tooLong set.
// io.EOF is returned only once no bytes remain.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	read := false
	for {
		chunk, err := br.ReadSlice('\n')
		read = read || len(chunk) > 0
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes+2 {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF && read:
			err = nil
		case err != nil:
			return "", false, err
		}

		buf = bytes.TrimSuffix(buf, []byte{'\n'})
		buf = bytes.TrimSuffix(buf, []byte{'\r'})
		if len(buf) > maxLineBytes {
			tooLong = true
		}
		if tooLong {
			return "", true, nil
		}
		return string(buf), false, nil
	}
}

func (r *Reader) open(ctx context.Context, path string) (io.ReadCloser, error) {
	switch {
	case path == Stdin:
		return io.NopCloser(r.stdin), nil
	case fetcher.IsRemote(path):
		if r.fetcher == nil {
			return nil, fmt.Errorf("remote input %s needs a fetcher", path)
		}
		return r.fetcher.Open(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// decompress wraps r in a gzip reader when it starts with the gzip magic bytes.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return gz, nil
	}
	return br, nil
}
