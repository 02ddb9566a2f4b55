package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  hello   world \n", want: "hello world"},
		{in: "<p>First</p><p>Second <b>bold</b></p>", want: "First Second bold"},
		{in: "Tom &amp; Jerry", want: "Tom & Jerry"},
		{in: "<script>alert(1)</script>safe", want: "safe"},
		{in: "", want: ""},
	}
	for _, tc := range tests {
		if got := PlainText(tc.in); got != tc.want {
			t.Fatalf("PlainText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSummarizeCutsOnWordBoundary(t *testing.T) {
	content := "<p>" + strings.Repeat("lorem ipsum ", 40) + "</p>"
	got := Summarize(content, SummaryLength)
	if utf8.RuneCountInString(got) > SummaryLength+1 {
		t.Fatalf("summary too long: %d runes", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	body := strings.TrimSuffix(got, "…")
	if strings.HasSuffix(body, " ") || strings.HasSuffix(body, "lore") {
		t.Fatalf("expected cut on word boundary, got %q", got)
	}
}

func TestSummarizeShortText(t *testing.T) {
	if got := Summarize("<em>short</em> post", SummaryLength); got != "short post" {
		t.Fatalf("unexpected summary %q", got)
	}
}
