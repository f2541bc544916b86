package prompts

import (
	"strings"
	"testing"
)

func TestSummary_LanguageSelection(t *testing.T) {
	ko := Summary("스크립트 내용", 5, "ko")
	if !strings.Contains(ko, "5개의 핵심 포인트") {
		t.Errorf("korean summary prompt missing point count: %q", ko)
	}
	if !strings.Contains(ko, "스크립트 내용") {
		t.Error("korean summary prompt missing script text")
	}

	en := Summary("script body", 3, "en")
	if !strings.Contains(en, "3 key points") {
		t.Errorf("english summary prompt missing point count: %q", en)
	}

	// Unknown language codes fall back to English.
	fr := Summary("texte", 2, "fr")
	if !strings.Contains(fr, "2 key points") {
		t.Error("non-ko language should use the english template")
	}
}

func TestTranslate(t *testing.T) {
	got := Translate("hello", "ko", "en")
	if !strings.Contains(got, "영어") || !strings.Contains(got, "한국어") {
		t.Errorf("prompt should name both languages: %q", got)
	}
	if !strings.Contains(got, "hello") {
		t.Error("prompt missing source text")
	}

	auto := Translate("hello", "ja", "")
	if strings.Contains(auto, "영어") {
		t.Error("auto-detect prompt should not name a source language")
	}
	if !strings.Contains(auto, "일본어") {
		t.Errorf("prompt should name the target language: %q", auto)
	}
}

func TestTranslate_UnknownCode(t *testing.T) {
	got := Translate("hi", "pt-BR", "")
	if !strings.Contains(got, "pt-BR") {
		t.Errorf("unknown codes pass through verbatim: %q", got)
	}
}

func TestTopics(t *testing.T) {
	ko := Topics("본문", 7, "ko")
	if !strings.Contains(ko, "핵심 주제 7가지") {
		t.Errorf("korean topics prompt missing count: %q", ko)
	}

	en := Topics("body", 4, "en")
	if !strings.Contains(en, "Extract 4 key topics") {
		t.Errorf("english topics prompt missing count: %q", en)
	}
}
