package tui

import (
	"strings"
	"testing"
)

func TestFitLinesPadsAndCrops(t *testing.T) {
	out := fitLines("ab\ncd\nef", 4, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "ab  " || lines[1] != "cd  " {
		t.Fatalf("unexpected lines: %q", lines)
	}

	out = fitLines("x", 2, 3)
	if out != "x \n  \n  " {
		t.Fatalf("unexpected padded output: %q", out)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("RUNNING normal", 10); got != "RUNNING..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("short", 10); got != "short" {
		t.Fatalf("short text should be untouched, got %q", got)
	}
	if got := truncateLine("abcdef", 2); got != "ab" {
		t.Fatalf("unexpected narrow truncation %q", got)
	}
}
