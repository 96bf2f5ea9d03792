package facade

import (
	"fmt"
	"strings"

	"lspkit/protocol"
)

// InsertAt implements spec.md §4.7 insert_text: inserts text at (line,col)
// via the buffer registry's minimal-diff didChange and returns the cursor
// position immediately after the inserted text.
func (f *Facade) InsertAt(relPath string, line, col int, text string) (protocol.Position, error) {
	if err := f.requireStarted(); err != nil {
		return protocol.Position{}, err
	}
	abs := f.absPath(relPath)
	if err := f.buffers.Open(abs, f.toURI); err != nil {
		return protocol.Position{}, fmt.Errorf("facade: open %s: %w", relPath, err)
	}
	defer f.buffers.Close(abs, f.toURI)

	content, ok := f.buffers.Content(abs)
	if !ok {
		return protocol.Position{}, fmt.Errorf("facade: %s has no buffered content", relPath)
	}

	offset, err := offsetAt(content, line, col)
	if err != nil {
		return protocol.Position{}, err
	}
	updated := content[:offset] + text + content[offset:]

	if err := f.buffers.Replace(abs, updated, f.toURI); err != nil {
		return protocol.Position{}, fmt.Errorf("facade: replace %s: %w", relPath, err)
	}
	return endPosition(line, col, text), nil
}

// DeleteBetween implements spec.md §4.7 delete_text: removes the text
// spanning [start,end) via the buffer registry's minimal-diff didChange.
func (f *Facade) DeleteBetween(relPath string, start, end protocol.Position) error {
	if err := f.requireStarted(); err != nil {
		return err
	}
	abs := f.absPath(relPath)
	if err := f.buffers.Open(abs, f.toURI); err != nil {
		return fmt.Errorf("facade: open %s: %w", relPath, err)
	}
	defer f.buffers.Close(abs, f.toURI)

	content, ok := f.buffers.Content(abs)
	if !ok {
		return fmt.Errorf("facade: %s has no buffered content", relPath)
	}

	startOff, err := offsetAt(content, start.Line, start.Character)
	if err != nil {
		return err
	}
	endOff, err := offsetAt(content, end.Line, end.Character)
	if err != nil {
		return err
	}
	if endOff < startOff {
		startOff, endOff = endOff, startOff
	}
	updated := content[:startOff] + content[endOff:]

	if err := f.buffers.Replace(abs, updated, f.toURI); err != nil {
		return fmt.Errorf("facade: replace %s: %w", relPath, err)
	}
	return nil
}

// offsetAt converts a (line, character) LSP position into a byte offset
// into content. character is treated as a rune count within the line,
// matching internal/buffer's UTF-16-approximation convention.
func offsetAt(content string, line, character int) (int, error) {
	lines := strings.SplitAfter(content, "\n")
	if line < 0 || line >= len(lines) {
		return 0, fmt.Errorf("facade: line %d out of range", line)
	}
	offset := 0
	for i := 0; i < line; i++ {
		offset += len(lines[i])
	}
	lineText := strings.TrimSuffix(lines[line], "\n")
	runes := []rune(lineText)
	if character < 0 || character > len(runes) {
		return 0, fmt.Errorf("facade: character %d out of range on line %d", character, line)
	}
	offset += len(string(runes[:character]))
	return offset, nil
}

// endPosition computes the cursor position after inserting text at
// (line,col): unchanged line if text has no newline, otherwise advanced by
// the number of newlines with the column set to the final line's length.
func endPosition(line, col int, text string) protocol.Position {
	if !strings.Contains(text, "\n") {
		return protocol.Position{Line: line, Character: col + len([]rune(text))}
	}
	parts := strings.Split(text, "\n")
	return protocol.Position{
		Line:      line + len(parts) - 1,
		Character: len([]rune(parts[len(parts)-1])),
	}
}
