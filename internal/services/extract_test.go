package services

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractText_Plain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.txt")
	content := "My practice explores light.\r\n\r\n\r\nI work mostly in oils."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	svc := NewExtractService()
	text, err := svc.ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}

	expected := "My practice explores light.\n\nI work mostly in oils."
	if text != expected {
		t.Errorf("Expected %q, got %q", expected, text)
	}
}

func TestExtractText_UnsupportedExtension(t *testing.T) {
	svc := NewExtractService()
	if _, err := svc.ExtractText("/tmp/sketch.psd"); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}

func TestStripDOCXML(t *testing.T) {
	src := []byte(`<w:document><w:body>` +
		`<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Quotes &amp; &quot;entities&quot;</w:t></w:r></w:p>` +
		`</w:body></w:document>`)

	got := normalizeExtractedText(stripDOCXML(src))
	expected := "First paragraph\nQuotes & \"entities\""
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestNormalizeExtractedText_CollapsesBlankRuns(t *testing.T) {
	got := normalizeExtractedText("a\n\n\n\nb\n   \nc")
	expected := "a\n\nb\n\nc"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain json", `{"body":"x"}`, `{"body":"x"}`},
		{"json fence", "```json\n{\"body\":\"x\"}\n```", `{"body":"x"}`},
		{"bare fence", "```\n{\"body\":\"x\"}\n```", `{"body":"x"}`},
		{"surrounding whitespace", "  {\"body\":\"x\"}  ", `{"body":"x"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFences(tc.in); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}
