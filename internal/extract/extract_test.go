package extract_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/valpere/peredit/internal/extract"
)

func TestSource_PagesAndIndices(t *testing.T) {
	text := "Premier paragraphe de la première page.\n\nSecond paragraphe ici.\fParagraphe de la deuxième page."

	paras := extract.Source(text)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}
	for i, p := range paras {
		if p.Index != i {
			t.Errorf("paragraph %d has index %d", i, p.Index)
		}
	}
	if paras[0].Page != 1 || paras[1].Page != 1 {
		t.Errorf("first two paragraphs should be page 1, got %d and %d", paras[0].Page, paras[1].Page)
	}
	if paras[2].Page != 2 {
		t.Errorf("third paragraph should be page 2, got %d", paras[2].Page)
	}
}

func TestSource_DropsShortParagraphs(t *testing.T) {
	text := "Long assez pour être conservé dans la sortie.\n\nTrop court"

	paras := extract.Source(text)
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	if !strings.HasPrefix(paras[0].Text, "Long assez") {
		t.Errorf("wrong paragraph kept: %q", paras[0].Text)
	}
}

func TestSource_FiltersWatermarkLines(t *testing.T) {
	text := strings.Join([]string{
		"ÉPREUVES",
		"12/03/2024 14:52",
		"420601AFC_SECRET.indd 17",
		"42",
		"Page 17",
		"Le vrai contenu du livre se trouve dans cette ligne.",
	}, "\n")

	paras := extract.Source(text)
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d: %v", len(paras), paras)
	}
	if paras[0].Text != "Le vrai contenu du livre se trouve dans cette ligne." {
		t.Errorf("unexpected text: %q", paras[0].Text)
	}
}

func TestSource_FiltersRepeatedHeaders(t *testing.T) {
	page := "LE TITRE COURANT\nContenu distinct numéro %d qui change de page en page.\n"
	var pages []string
	for i := 0; i < 5; i++ {
		pages = append(pages, strings.Replace(page, "%d", string(rune('0'+i)), 1))
	}
	text := strings.Join(pages, "\f")

	paras := extract.Source(text)
	if len(paras) != 5 {
		t.Fatalf("expected 5 paragraphs, got %d", len(paras))
	}
	for _, p := range paras {
		if strings.Contains(p.Text, "TITRE COURANT") {
			t.Errorf("repeated header survived on page %d: %q", p.Page, p.Text)
		}
	}
}

func TestSource_ExtraPatterns(t *testing.T) {
	text := "CONFIDENTIEL NE PAS DIFFUSER\nLe contenu utile est conservé dans cette phrase."

	paras := extract.Source(text, regexp.MustCompile(`^CONFIDENTIEL`))
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	if strings.Contains(paras[0].Text, "CONFIDENTIEL") {
		t.Errorf("extra pattern not applied: %q", paras[0].Text)
	}
}

func TestSource_Empty(t *testing.T) {
	if got := extract.Source(""); len(got) != 0 {
		t.Errorf("expected no paragraphs, got %v", got)
	}
}

func TestCandidates_SplitsOnBlankLines(t *testing.T) {
	text := "第一段译文内容。\n\n第二段译文内容。\n   \n第三段。"

	paras := extract.Candidates(text)
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(paras))
	}
	for i, p := range paras {
		if p.Index != i {
			t.Errorf("paragraph %d has index %d", i, p.Index)
		}
	}
	if paras[2].Text != "第三段。" {
		t.Errorf("unexpected third paragraph: %q", paras[2].Text)
	}
}

func TestCandidates_KeepsShortParagraphs(t *testing.T) {
	paras := extract.Candidates("短。\n\n也短。")
	if len(paras) != 2 {
		t.Fatalf("short candidate paragraphs must be kept, got %d", len(paras))
	}
}
