package dataprocessing

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Log is the text of one ASVCO2 log file split into lines. Line numbers are
// 1-based throughout the package.
type Log struct {
	Name  string
	Lines []string
}

// NewLog splits content into lines, dropping carriage returns.
func NewLog(name string, content []byte) *Log {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &Log{Name: name, Lines: lines}
}

// ReadLog reads a log from r.
func ReadLog(name string, r io.Reader) (*Log, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return &Log{Name: name, Lines: lines}, nil
}

// OpenLog reads a log file from disk. The log is named by its base name.
func OpenLog(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	defer f.Close()
	return ReadLog(filepath.Base(path), f)
}

// HasCoefficients reports whether any line carries COEFF text. Logs without
// coefficients cannot be corrected and are skipped by batch runs.
func (l *Log) HasCoefficients() bool {
	for _, line := range l.Lines {
		if strings.Contains(line, tagCoeff) {
			return true
		}
	}
	return false
}

// tagged calls fn with the line number and text of every line containing tag.
func (l *Log) tagged(tag string, fn func(lineNo int, line string) error) error {
	for i, line := range l.Lines {
		if !strings.Contains(line, tag) {
			continue
		}
		if err := fn(i+1, line); err != nil {
			return err
		}
	}
	return nil
}

// lastTagged returns the last n lines containing tag, in file order.
func (l *Log) lastTagged(tag string, n int) (lineNos []int, lines []string) {
	for i := len(l.Lines) - 1; i >= 0 && len(lines) < n; i-- {
		if strings.Contains(l.Lines[i], tag) {
			lineNos = append([]int{i + 1}, lineNos...)
			lines = append([]string{l.Lines[i]}, lines...)
		}
	}
	return lineNos, lines
}

// letterRatio is the fraction of runes in s that are letters.
func letterRatio(s string) float64 {
	total, letters := 0, 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
