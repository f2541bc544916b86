// Package prompts contains the LLM prompt templates used by vidscribe.
//
// Templates exist in Korean and English variants; the language code on
// the request selects which one is sent. Keeping them in one package
// makes prompt review and tuning a single-file affair.
package prompts

import "fmt"

// languageNames maps language codes to their Korean display names,
// used inside the Korean-language prompt variants.
var languageNames = map[string]string{
	"ko": "한국어",
	"en": "영어",
	"ja": "일본어",
	"zh": "중국어",
	"es": "스페인어",
	"fr": "프랑스어",
	"de": "독일어",
}

// LanguageName returns the Korean display name for a language code,
// falling back to the code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

const summaryTemplateKo = `다음 YouTube 비디오 스크립트를 %d개의 핵심 포인트로 요약해주세요.
각 포인트는 간결하고 명확하게 작성해주세요.

스크립트:
%s

요약 형식:
1. [첫 번째 핵심 포인트]
2. [두 번째 핵심 포인트]
...
`

const summaryTemplateEn = `Please summarize the following YouTube video script into %d key points.
Each point should be concise and clear.

Script:
%s

Summary format:
1. [First key point]
2. [Second key point]
...
`

// Summary returns the summarization prompt for the given script text.
// language selects the Korean or English template; anything other than
// "ko" gets the English variant.
func Summary(text string, maxPoints int, language string) string {
	if language == "ko" {
		return fmt.Sprintf(summaryTemplateKo, maxPoints, text)
	}
	return fmt.Sprintf(summaryTemplateEn, maxPoints, text)
}

// Translate returns the translation prompt. When sourceLang is empty
// the model auto-detects the source language. The prompt instructs the
// model to output the translation only, no commentary.
func Translate(text, targetLang, sourceLang string) string {
	target := LanguageName(targetLang)
	if sourceLang != "" {
		return fmt.Sprintf("다음 %s 텍스트를 %s로 번역해주세요. 번역 결과만 출력하세요:\n\n%s",
			LanguageName(sourceLang), target, text)
	}
	return fmt.Sprintf("다음 텍스트를 %s로 번역해주세요. 번역 결과만 출력하세요:\n\n%s", target, text)
}

const topicsTemplateKo = `다음 YouTube 비디오 스크립트에서 핵심 주제 %d가지를 추출해주세요.
각 주제는 짧은 키워드나 구절로 표현해주세요.

스크립트:
%s

출력 형식 (각 주제를 한 줄씩):
- [주제 1]
- [주제 2]
...
`

const topicsTemplateEn = `Extract %d key topics from the following YouTube video script.
Express each topic as a short keyword or phrase.

Script:
%s

Output format (one topic per line):
- [Topic 1]
- [Topic 2]
...
`

// Topics returns the topic-extraction prompt for the given script text.
func Topics(text string, numTopics int, language string) string {
	if language == "ko" {
		return fmt.Sprintf(topicsTemplateKo, numTopics, text)
	}
	return fmt.Sprintf(topicsTemplateEn, numTopics, text)
}
