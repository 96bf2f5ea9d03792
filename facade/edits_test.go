package facade

import "testing"

func TestOffsetAtFirstLine(t *testing.T) {
	content := "hello\nworld\n"
	off, err := offsetAt(content, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if off != 3 {
		t.Errorf("got %d, want 3", off)
	}
}

func TestOffsetAtSecondLine(t *testing.T) {
	content := "hello\nworld\n"
	off, err := offsetAt(content, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if off != len("hello\n")+2 {
		t.Errorf("got %d, want %d", off, len("hello\n")+2)
	}
}

func TestOffsetAtHandlesMultibyteRunes(t *testing.T) {
	content := "héllo\n"
	off, err := offsetAt(content, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	// 'h' (1 byte) + 'é' (2 bytes in UTF-8) = 3 bytes for 2 runes.
	if off != 3 {
		t.Errorf("got %d, want 3", off)
	}
}

func TestOffsetAtOutOfRangeLine(t *testing.T) {
	if _, err := offsetAt("hello\n", 5, 0); err == nil {
		t.Error("expected error for out-of-range line")
	}
}

func TestOffsetAtOutOfRangeCharacter(t *testing.T) {
	if _, err := offsetAt("hello\n", 0, 100); err == nil {
		t.Error("expected error for out-of-range character")
	}
}

func TestEndPositionSingleLineInsert(t *testing.T) {
	got := endPosition(2, 4, "abc")
	if got.Line != 2 || got.Character != 7 {
		t.Errorf("got %+v, want line=2 character=7", got)
	}
}

func TestEndPositionMultiLineInsert(t *testing.T) {
	got := endPosition(2, 4, "abc\nde")
	if got.Line != 3 || got.Character != 2 {
		t.Errorf("got %+v, want line=3 character=2", got)
	}
}

func TestEndPositionEmptyInsert(t *testing.T) {
	got := endPosition(1, 1, "")
	if got.Line != 1 || got.Character != 1 {
		t.Errorf("got %+v, want unchanged position", got)
	}
}
