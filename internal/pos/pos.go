// Package pos tracks source positions for Rez compiler diagnostics.
package pos

import "fmt"

// Position identifies a single point in a logical source file: the file's
// display name together with a 1-based line and column.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// LogicalFile resolves raw byte offsets into the input buffer back to
// line/column pairs. Rez's real preprocessor stitches several physical
// files into one logical stream (via includes); that resolution step is
// out of scope here, so LogicalFile only ever sees a single physical file.
type LogicalFile struct {
	Name  string
	lines []int // byte offset of the start of each line
}

// NewLogicalFile indexes the line-start offsets of source so ResolveLine
// can do a binary search instead of rescanning on every call.
func NewLogicalFile(name, source string) *LogicalFile {
	lf := &LogicalFile{Name: name, lines: []int{0}}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			lf.lines = append(lf.lines, i+1)
		}
	}
	return lf
}

// ResolveLine converts a byte offset into the source into a Position.
// Offsets past the end of the file resolve to the last line.
func (lf *LogicalFile) ResolveLine(offset int) Position {
	lo, hi := 0, len(lf.lines)-1
	line := hi
	for lo <= hi {
		mid := (lo + hi) / 2
		if lf.lines[mid] <= offset {
			line = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	col := offset - lf.lines[line] + 1
	return Position{File: lf.Name, Line: line + 1, Column: col}
}
