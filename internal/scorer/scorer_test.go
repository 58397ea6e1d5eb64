package scorer_test

import (
	"testing"

	"github.com/valpere/peredit/internal/scorer"
)

func TestScore_EmptyInputs(t *testing.T) {
	if s := scorer.Score("", "candidate"); s != 0 {
		t.Errorf("expected 0 for empty source, got %f", s)
	}
	if s := scorer.Score("source", ""); s != 0 {
		t.Errorf("expected 0 for empty candidate, got %f", s)
	}
	if s := scorer.Score("", ""); s != 0 {
		t.Errorf("expected 0 for both empty, got %f", s)
	}
}

func TestScore_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"Il fait beau.", "天气很好。"},
		{"Bonjour.", "你好。"},
		{"a", "a very long candidate that is far longer than the source text itself"},
		{"Chapitre 12, page 345.", "第12章，第345页。"},
		{"Chapitre 12, page 345.", "无关内容。"},
		{"No punctuation here at all", "也没有标点"},
	}
	for _, p := range pairs {
		s := scorer.Score(p[0], p[1])
		if s < 0 || s > 1 {
			t.Errorf("Score(%q, %q) = %f out of [0,1]", p[0], p[1], s)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	src := "Le chapitre 3 traite de la liberté."
	cand := "第3章讨论自由。"
	first := scorer.Score(src, cand)
	for i := 0; i < 10; i++ {
		if got := scorer.Score(src, cand); got != first {
			t.Fatalf("score not deterministic: %f vs %f", got, first)
		}
	}
}

func TestScore_IdealLengthRatio(t *testing.T) {
	// Candidate at ~40% of source length falls in the ideal band and, with
	// matching numbers and punctuation, should score high.
	src := "Il fait beau aujourd'hui. Le soleil brille sur la ville."
	cand := "今天天气很好。阳光照耀着城市。"
	if s := scorer.Score(src, cand); s < 0.7 {
		t.Errorf("expected high confidence for well-matched pair, got %f", s)
	}
}

func TestScore_NumericAnchors(t *testing.T) {
	src := "En 1789, la révolution commence. Voir page 42."
	matching := "1789年，革命开始。见第42页。"
	mismatched := "完全无关的内容，没有任何数字。"

	sMatch := scorer.Score(src, matching)
	sMiss := scorer.Score(src, mismatched)
	if sMatch <= sMiss {
		t.Errorf("matching numbers should outscore missing numbers: %f vs %f", sMatch, sMiss)
	}
}

func TestScore_PunctuationNeutralFloor(t *testing.T) {
	// Heavy punctuation mismatch must not zero out the score; the
	// punctuation component falls back to a neutral 0.5.
	src := "Un, deux, trois; quatre. Cinq! Six?"
	cand := "一二三四五六"
	if s := scorer.Score(src, cand); s <= 0 {
		t.Errorf("punctuation mismatch alone should not produce 0, got %f", s)
	}
}

func TestScore_OversizedCandidatePenalised(t *testing.T) {
	src := "Court."
	cand := "这是一段远远超过原文长度的译文，完全不成比例，应该受到长度分量的惩罚，因为它比原文长太多了。"
	long := scorer.Score(src, cand)
	good := scorer.Score("Une phrase source de longueur raisonnable pour ce test.", "一个合理长度的译文。")
	if long >= good {
		t.Errorf("oversized candidate should score lower: %f vs %f", long, good)
	}
}
