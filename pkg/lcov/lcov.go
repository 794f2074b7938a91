// Package lcov reads coverage-data files in the lcov tracefile format.
//
// Only the records needed to summarise a run are interpreted:
//
//	TN:<test name>
//	SF:<source file>
//	FN:<line>,<function>
//	FNDA:<count>,<function>
//	FNF:<functions found>   FNH:<functions hit>
//	BRDA:<line>,<block>,<branch>,<taken|->
//	BRF:<branches found>    BRH:<branches hit>
//	DA:<line>,<count>[,<checksum>]
//	LF:<lines found>        LH:<lines hit>
//	end_of_record
//
// Unknown record types are ignored so newer lcov versions keep parsing.
package lcov

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/covpipe/pkg/domain"
)

// Branch identifies one BRDA entry.
type Branch struct {
	Line   int
	Block  int
	Branch int
	Taken  int // 0 when lcov reports "-"
}

// File holds the coverage of one source file.
type File struct {
	Path      string
	TestName  string
	Lines     map[int]int    // line -> execution count
	Functions map[string]int // function -> execution count
	FuncLines map[string]int // function -> start line
	Branches  []Branch
}

func newFile(path, testName string) *File {
	return &File{
		Path:      path,
		TestName:  testName,
		Lines:     make(map[int]int),
		Functions: make(map[string]int),
		FuncLines: make(map[string]int),
	}
}

// Summary counts what this file instruments and what was exercised.
func (f *File) Summary() domain.CoverageSummary {
	s := domain.CoverageSummary{Files: 1}
	for _, count := range f.Lines {
		s.LinesFound++
		if count > 0 {
			s.LinesHit++
		}
	}
	for name := range f.FuncLines {
		s.FunctionsFound++
		if f.Functions[name] > 0 {
			s.FunctionsHit++
		}
	}
	for _, b := range f.Branches {
		s.BranchesFound++
		if b.Taken > 0 {
			s.BranchesHit++
		}
	}
	return s
}

// Tracefile is a parsed coverage-data file.
type Tracefile struct {
	// Files is keyed by source path. Repeated SF records for one path are merged.
	Files map[string]*File
}

// Paths returns the source files in sorted order.
func (t *Tracefile) Paths() []string {
	paths := make([]string, 0, len(t.Files))
	for p := range t.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Summary totals the coverage of every file.
func (t *Tracefile) Summary() domain.CoverageSummary {
	var total domain.CoverageSummary
	for _, f := range t.Files {
		s := f.Summary()
		total.Files += s.Files
		total.LinesFound += s.LinesFound
		total.LinesHit += s.LinesHit
		total.FunctionsFound += s.FunctionsFound
		total.FunctionsHit += s.FunctionsHit
		total.BranchesFound += s.BranchesFound
		total.BranchesHit += s.BranchesHit
	}
	return total
}

// ParseFile opens and parses a tracefile on disk.
func ParseFile(path string) (*Tracefile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coverage file: %w", err)
	}
	defer f.Close()

	tf, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tf, nil
}

// Parse reads a tracefile.
func Parse(r io.Reader) (*Tracefile, error) {
	tf := &Tracefile{Files: make(map[string]*File)}

	var (
		testName string
		current  *File
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "end_of_record" {
			current = nil
			continue
		}

		tag, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: malformed record %q", lineNo, line)
		}

		switch tag {
		case "TN":
			testName = value
			continue
		case "SF":
			if existing, ok := tf.Files[value]; ok {
				current = existing
			} else {
				current = newFile(value, testName)
				tf.Files[value] = current
			}
			continue
		}

		if current == nil {
			// Totals and unknown tags outside a record carry no per-file data
			if isDataTag(tag) {
				return nil, fmt.Errorf("line %d: %s record outside of SF block", lineNo, tag)
			}
			continue
		}

		if err := parseRecord(current, tag, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read coverage data: %w", err)
	}

	return tf, nil
}

func isDataTag(tag string) bool {
	switch tag {
	case "FN", "FNDA", "BRDA", "DA":
		return true
	}
	return false
}

func parseRecord(f *File, tag, value string) error {
	switch tag {
	case "DA":
		fields := strings.Split(value, ",")
		if len(fields) < 2 {
			return fmt.Errorf("DA expects line,count: %q", value)
		}
		ln, err := atoi(fields[0], "DA line")
		if err != nil {
			return err
		}
		n, err := count(fields[1], "DA count")
		if err != nil {
			return err
		}
		f.Lines[ln] = addCount(f.Lines[ln], n)

	case "FN":
		lineStr, name, ok := strings.Cut(value, ",")
		if !ok {
			return fmt.Errorf("FN expects line,name: %q", value)
		}
		ln, err := atoi(lineStr, "FN line")
		if err != nil {
			return err
		}
		if _, seen := f.FuncLines[name]; !seen {
			f.FuncLines[name] = ln
		}

	case "FNDA":
		countStr, name, ok := strings.Cut(value, ",")
		if !ok {
			return fmt.Errorf("FNDA expects count,name: %q", value)
		}
		n, err := count(countStr, "FNDA count")
		if err != nil {
			return err
		}
		f.Functions[name] = addCount(f.Functions[name], n)
		if _, seen := f.FuncLines[name]; !seen {
			f.FuncLines[name] = 0
		}

	case "BRDA":
		fields := strings.Split(value, ",")
		if len(fields) != 4 {
			return fmt.Errorf("BRDA expects line,block,branch,taken: %q", value)
		}
		var b Branch
		var err error
		if b.Line, err = atoi(fields[0], "BRDA line"); err != nil {
			return err
		}
		if b.Block, err = atoi(fields[1], "BRDA block"); err != nil {
			return err
		}
		if b.Branch, err = atoi(fields[2], "BRDA branch"); err != nil {
			return err
		}
		if b.Taken, err = count(fields[3], "BRDA taken"); err != nil {
			return err
		}
		f.Branches = append(f.Branches, b)

	case "FNF", "FNH", "BRF", "BRH", "LF", "LH":
		// Totals are recomputed from the detail records
		if _, err := atoi(value, tag); err != nil {
			return err
		}
	}
	return nil
}

func atoi(s, what string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return n, nil
}

// count parses an execution count. gcov can emit very large counts in
// exponent form, and lcov writes "-" for blocks that were never executed.
func count(s, what string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "-" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	// Out-of-range exponents come back as Inf with ErrRange; literal NaN and Inf do not
	outOfRange := errors.Is(err, strconv.ErrRange)
	if err != nil && !outOfRange {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	if math.IsNaN(f) || (math.IsInf(f, 0) && !outOfRange) || f < 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	if f >= math.MaxInt {
		return math.MaxInt, nil
	}
	return int(f), nil
}

// addCount sums execution counts, saturating at math.MaxInt.
func addCount(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
