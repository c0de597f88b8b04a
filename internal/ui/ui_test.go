package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestKeyValuesAlignsLabels(t *testing.T) {
	out := KeyValues("  ", KV("port", "foo"), KV("git-tree", "abc"))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if !strings.HasSuffix(lines[0], " foo") || !strings.HasSuffix(lines[1], " abc") {
		t.Fatalf("unexpected values: %q", out)
	}
	if strings.Index(lines[0], "foo") != strings.Index(lines[1], "abc") {
		t.Fatalf("values are not aligned: %q", out)
	}
}

func TestMessagesContainText(t *testing.T) {
	for _, msg := range []string{
		SuccessMsg("updated %s", "foo"),
		WarnMsg("updated %s", "foo"),
		ErrorMsg("updated %s", "foo"),
		InfoMsg("updated %s", "foo"),
	} {
		if !strings.HasSuffix(msg, "updated foo") {
			t.Fatalf("unexpected message %q", msg)
		}
	}
}

func TestTableTruncatesFlexColumn(t *testing.T) {
	long := strings.Repeat("x", 200)
	tbl := &Table{
		Headers: []string{"Port", "Message"},
		Rows:    [][]string{{"foo", long}},
		Flex:    1,
		Width:   60,
	}

	var buf bytes.Buffer
	tbl.Render(&buf)
	out := buf.String()

	if strings.Contains(out, long) {
		t.Fatalf("expected flex column to be truncated")
	}
	if !strings.Contains(out, "...") || !strings.Contains(out, "foo") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}

func TestTableFlexWidthHasFloor(t *testing.T) {
	tbl := &Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{strings.Repeat("a", 100), "b"}},
		Flex:    1,
		Width:   40,
	}
	if got := tbl.flexWidth(); got != 15 {
		t.Fatalf("expected floor of 15, got %d", got)
	}

	tbl.Flex = -1
	if got := tbl.flexWidth(); got != 0 {
		t.Fatalf("expected no flex width, got %d", got)
	}
}
