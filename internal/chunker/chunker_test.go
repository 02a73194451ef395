package chunker

import (
	"reflect"
	"strings"
	"testing"

	"github.com/emmystark/Rag-chatbot/internal/domain"
)

func segment(text string, page int) domain.Segment {
	return domain.Segment{Text: text, SourceName: "doc.pdf", SourcePath: "/docs/doc.pdf", Page: page}
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	chunks := New(1000, 200).Split([]domain.Segment{segment("The capital of France is Paris.", domain.NoPage)})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text() != "The capital of France is Paris." {
		t.Errorf("unexpected chunk text %q", chunks[0].Text())
	}
	if chunks[0].Index() != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index())
	}
}

func TestSplit_RespectsSizeAndOverlap(t *testing.T) {
	words := strings.Repeat("alpha beta gamma delta ", 100) // ~2300 chars
	chunks := New(500, 100).Split([]domain.Segment{segment(words, domain.NoPage)})

	if len(chunks) < 4 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c.Text())); n > 500 {
			t.Errorf("chunk %d has %d chars, exceeds size 500", i, n)
		}
		if c.Index() != i {
			t.Errorf("chunk %d has index %d", i, c.Index())
		}
	}
	// Consecutive chunks should share text through the overlap window.
	tail := chunks[0].Text()[len(chunks[0].Text())-20:]
	if !strings.Contains(chunks[1].Text(), tail[:10]) {
		t.Errorf("no overlap between chunk 0 and chunk 1")
	}
}

func TestSplit_NeverMixesSegments(t *testing.T) {
	segments := []domain.Segment{
		segment("PAGE-ONE "+strings.Repeat("one ", 50), 0),
		segment("PAGE-TWO "+strings.Repeat("two ", 50), 1),
	}
	chunks := New(1000, 200).Split(segments)

	for _, c := range chunks {
		if strings.Contains(c.Text(), "PAGE-ONE") && strings.Contains(c.Text(), "PAGE-TWO") {
			t.Fatalf("chunk mixes two pages: %q", c.Text())
		}
		switch {
		case strings.Contains(c.Text(), "PAGE-ONE") && c.Page() != 0:
			t.Errorf("page-one chunk carries page %d", c.Page())
		case strings.Contains(c.Text(), "PAGE-TWO") && c.Page() != 1:
			t.Errorf("page-two chunk carries page %d", c.Page())
		}
	}
}

func TestSplit_DropsWhitespaceOnlySegments(t *testing.T) {
	segments := []domain.Segment{
		segment("   \n\n\t  ", 0),
		segment("real content", 1),
	}
	chunks := New(1000, 200).Split(segments)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text() != "real content" {
		t.Errorf("unexpected chunk text %q", chunks[0].Text())
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	para1 := strings.Repeat("a", 300)
	para2 := strings.Repeat("b", 300)
	text := para1 + "\n\n" + para2

	chunks := New(400, 50).Split([]domain.Segment{segment(text, domain.NoPage)})

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text(), "b") {
		t.Errorf("first chunk crossed the paragraph break: %q", chunks[0].Text())
	}
}

func TestSplit_Deterministic(t *testing.T) {
	segments := []domain.Segment{segment(strings.Repeat("lorem ipsum dolor sit amet ", 80), domain.NoPage)}

	first := New(500, 100).Split(segments)
	second := New(500, 100).Split(segments)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical input produced different chunk sequences")
	}
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	s := New(0, -5)
	if s.size != DefaultSize || s.overlap != DefaultOverlap {
		t.Errorf("defaults not applied: size=%d overlap=%d", s.size, s.overlap)
	}

	s = New(100, 100) // overlap >= size
	if s.overlap >= s.size {
		t.Errorf("overlap %d not clamped below size %d", s.overlap, s.size)
	}
}
