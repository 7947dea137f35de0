// Package cat writes a document's content with optional line numbers and
// line range.
//
// Line numbers are 0-based and ranges half-open, the same convention the
// editing engine and document_structure use, so a range read here can be
// passed straight to a range edit.
package cat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
)

// minLineNumWidth is the minimum column width for line numbers.
const minLineNumWidth = 4

// maxLineLength bounds a single scanned line.
const maxLineLength = 10 * 1024 * 1024

// Options configures a cat operation.
type Options struct {
	Version     int  // Version number to read (0 = current)
	LineNumbers bool // Prefix each line with its number

	// StartLine and EndLine select [StartLine, EndLine). A nil bound means
	// the start or end of the document.
	StartLine *int
	EndLine   *int
}

// Result contains the outcome of a cat operation.
type Result struct {
	Document      *store.Document
	VersionNumber int
	Content       string
}

// Run reads a document the user owns and writes its content to w.
func Run(ctx context.Context, w io.Writer, svc service.Service, documentID, userID string, opts Options) (Result, error) {
	res, err := read(ctx, svc, documentID, userID, opts.Version)
	if err != nil {
		return res, err
	}
	return res, Write(w, res.Content, opts)
}

func read(ctx context.Context, svc service.Service, documentID, userID string, version int) (Result, error) {
	if version <= 0 {
		doc, err := svc.Get(ctx, documentID, userID)
		if err != nil {
			return Result{}, err
		}
		if doc == nil {
			return Result{}, fmt.Errorf("document %s: %w", documentID, store.ErrNotFound)
		}
		return Result{Document: &doc.Document, VersionNumber: doc.VersionNumber, Content: doc.Content}, nil
	}

	versions, err := svc.ListVersions(ctx, documentID, userID, 0)
	if err != nil {
		return Result{}, err
	}
	for _, v := range versions {
		if v.VersionNumber != version {
			continue
		}
		vc, err := svc.GetVersion(ctx, v.ID, userID)
		if err != nil {
			return Result{}, err
		}
		if vc == nil {
			return Result{}, fmt.Errorf("version %d content unavailable", version)
		}
		return Result{VersionNumber: version, Content: vc.Content}, nil
	}
	return Result{}, fmt.Errorf("version %d: %w", version, store.ErrNotFound)
}

// Write writes content to w, applying the line range and numbering.
func Write(w io.Writer, content string, opts Options) error {
	if opts.StartLine == nil && opts.EndLine == nil && !opts.LineNumbers {
		_, err := io.WriteString(w, content)
		return err
	}

	total := strings.Count(content, "\n") + 1
	start, end := 0, total
	if opts.StartLine != nil {
		start = *opts.StartLine
	}
	if opts.EndLine != nil && *opts.EndLine < end {
		end = *opts.EndLine
	}
	if start < 0 || start > end {
		return fmt.Errorf("invalid line range %d:%d (document has %d lines)", start, end, total)
	}

	width := max(len(strconv.Itoa(end)), minLineNumWidth)

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	for n := 0; scanner.Scan(); n++ {
		if n < start {
			continue
		}
		if n >= end {
			break
		}
		if opts.LineNumbers {
			fmt.Fprintf(w, "%*d\t%s\n", width, n, scanner.Text())
		} else {
			fmt.Fprintln(w, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	return nil
}

// ParseRange parses "start:end" where either side may be empty.
func ParseRange(s string) (start, end *int, err error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return nil, nil, fmt.Errorf("invalid line range %q: expected START:END", s)
	}
	parse := func(v, name string) (*int, error) {
		if v == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s line %q", name, v)
		}
		return &n, nil
	}
	if start, err = parse(a, "start"); err != nil {
		return nil, nil, err
	}
	if end, err = parse(b, "end"); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && *start > *end {
		return nil, nil, fmt.Errorf("start line %d is after end line %d", *start, *end)
	}
	return start, end, nil
}
