// Package kofi reads and writes KoFi configuration documents.
//
// A KoFi document is line oriented: comments start with ';', sections are
// written as [name] and properties as key = value, where value is a typed
// literal (null, booleans, characters, 32 and 64 bit numbers, strings,
// arrays and objects).
package kofi

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

const maxLineSize = 1 << 20

// Scanner wraps a bufio.Scanner with line counting.
type Scanner struct {
	*bufio.Scanner
	lineNum int
}

// NewScanner creates a new Scanner from an io.Reader. Lines may end in
// "\n" or "\r\n" and may be up to 1 MiB long.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{
		Scanner: s,
		lineNum: 0,
	}
}

// NextLine advances the scanner and returns the current line number and text.
func (s *Scanner) NextLine() (int, string, bool) {
	if !s.Scan() {
		return s.lineNum, "", false
	}
	s.lineNum++
	return s.lineNum, strings.TrimSuffix(s.Text(), "\r"), true
}

// Parser parses KoFi documents. Lines are independent, so large inputs are
// parsed on a goroutine pool; the element order always follows the input.
type Parser struct {
	workers   int
	threshold int
	logger    *slog.Logger
}

// NewParser creates a new Parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		workers:   runtime.GOMAXPROCS(0),
		threshold: 512,
		logger:    slog.New(slog.DiscardHandler),
	}
}

// WithWorkers sets the pool size used for parallel parsing. Values below 2
// disable parallel parsing.
func (p *Parser) WithWorkers(n int) *Parser {
	p.workers = n
	return p
}

// WithSequentialThreshold sets the line count below which a document is
// parsed on the calling goroutine.
func (p *Parser) WithSequentialThreshold(lines int) *Parser {
	p.threshold = lines
	return p
}

// WithLogger sets the logger receiving diagnostics such as lenient escape
// warnings.
func (p *Parser) WithLogger(l *slog.Logger) *Parser {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	p.logger = l
	return p
}

// ParseDocument parses a KoFi document from an io.Reader. The first
// malformed line aborts the read with a *ParseError.
func (p *Parser) ParseDocument(r io.Reader) (*Document, error) {
	scanner := NewScanner(r)
	var lines []string
	for {
		_, line, ok := scanner.NextLine()
		if !ok {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", scanner.lineNum+1, err)
	}

	elems, err := p.parseLines(lines)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("parsed document", "lines", len(lines))
	return &Document{elements: elems}, nil
}

// ParseString parses a document held in a string.
func (p *Parser) ParseString(s string) (*Document, error) {
	return p.ParseDocument(strings.NewReader(s))
}

// ParseBytes parses a document held in a byte slice.
func (p *Parser) ParseBytes(b []byte) (*Document, error) {
	return p.ParseDocument(bytes.NewReader(b))
}

func (p *Parser) parseLines(lines []string) ([]Element, error) {
	if p.workers < 2 || len(lines) < p.threshold {
		return p.parseSequential(lines)
	}
	return p.parseParallel(lines)
}

func (p *Parser) parseSequential(lines []string) ([]Element, error) {
	elems := make([]Element, len(lines))
	for i, line := range lines {
		el, err := parseLine(line, i+1, p.logger)
		if err != nil {
			return nil, err
		}
		elems[i] = el
	}
	return elems, nil
}

// parseParallel parses every line on the pool into its own slot. Once a line
// fails, lines after it are skipped, so the reported error is always the one
// with the lowest line number.
func (p *Parser) parseParallel(lines []string) ([]Element, error) {
	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, fmt.Errorf("create parse pool: %w", err)
	}
	defer pool.Release()

	elems := make([]Element, len(lines))
	errs := make([]error, len(lines))
	var firstFailed atomic.Int64
	firstFailed.Store(math.MaxInt64)

	var wg sync.WaitGroup
	for i, line := range lines {
		if int64(i) > firstFailed.Load() {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if int64(i) > firstFailed.Load() {
				return
			}
			el, err := parseLine(line, i+1, p.logger)
			if err != nil {
				errs[i] = err
				for {
					cur := firstFailed.Load()
					if int64(i) >= cur || firstFailed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				return
			}
			elems[i] = el
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit line %d: %w", i+1, err)
		}
	}
	wg.Wait()

	if idx := firstFailed.Load(); idx != math.MaxInt64 {
		return nil, errs[idx]
	}
	return elems, nil
}

// Parse parses a document from r with a default Parser.
func Parse(r io.Reader) (*Document, error) {
	return NewParser().ParseDocument(r)
}

// ParseString parses a document held in a string with a default Parser.
func ParseString(s string) (*Document, error) {
	return NewParser().ParseString(s)
}
