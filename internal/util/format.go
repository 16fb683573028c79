package util

import (
	"fmt"
	"strconv"
	"strings"
)

// EmptyFileMessage is the literal text returned for an empty file read.
const EmptyFileMessage = "System reminder: File exists but has empty contents"

// ChunkSize is the maximum number of characters rendered on a single
// numbered line before it is split into "N.1", "N.2", ... continuation
// lines. Mirrors the ~2,000 character chunk used by the teacher's output
// truncation and the eino filesystem middleware's offloading thresholds,
// scaled down from "tool result" size to "single line" size.
const ChunkSize = 2000

// FormatLines renders lines[offset:offset+limit] with a right-aligned,
// six-wide line number followed by a tab, splitting any line longer than
// ChunkSize into "N.1", "N.2", ... continuations.
//
// Returns an error naming the offending offset if offset is out of range,
// and EmptyFileMessage if the file has no content at all (offset==0 and no
// lines).
func FormatLines(lines []string, offset, limit int) (string, error) {
	if len(lines) == 0 {
		if offset == 0 {
			return EmptyFileMessage, nil
		}
		return "", fmt.Errorf("offset %d is out of range for empty file", offset)
	}
	if offset < 0 || offset >= len(lines) {
		return "", fmt.Errorf("offset %d is out of range (file has %d lines)", offset, len(lines))
	}

	end := len(lines)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		lineNo := i + 1
		writeNumberedLine(&b, strconv.Itoa(lineNo), lines[i])
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func writeNumberedLine(b *strings.Builder, label, content string) {
	if len(content) <= ChunkSize {
		fmt.Fprintf(b, "%6s\t%s\n", label, content)
		return
	}
	chunk := 0
	for len(content) > 0 {
		chunk++
		n := ChunkSize
		if n > len(content) {
			n = len(content)
		}
		fmt.Fprintf(b, "%6s\t%s\n", fmt.Sprintf("%s.%d", label, chunk), content[:n])
		content = content[n:]
	}
}

// SplitContent splits raw text on "\n" into the logical-line representation
// used by FileData. The invariant strings.Join(SplitContent(s), "\n") == s
// always holds.
func SplitContent(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

// JoinContent is the inverse of SplitContent.
func JoinContent(lines []string) string {
	return strings.Join(lines, "\n")
}
