package analyzer

import (
	"fmt"
	"strings"
)

const (
	LanguageEnglish = "en"
	LanguageTurkish = "tr"
)

type promptSet struct {
	system          string
	keywordLine     string
	gap             string
	keyword         string
	keywordFallback string
}

var prompts = map[string]promptSet{
	LanguageEnglish: {
		system:      "You are an experienced SEO content strategist. Answer concisely in English.",
		keywordLine: "Target keyword: %s\n\n",
		gap: `%sMy content:
%s

Competitor content:
%s

Compare the two pages above.
- Judge content quality, especially against the target keyword when one is given.
- List the topics, headings, explanations or details that the competitor covers and my content is missing.
- Which gaps should I close for SEO?`,
		keyword: `Produce SEO suggestions for the keyword "%s":

1. Long-tail keyword (n-gram) variants related to the keyword.
2. Autocomplete-style completions a searcher might be offered.
3. Related entities (brands, people, concepts).
4. Likely search intents behind the keyword (intent analysis).

Answer in short bullet points.`,
		keywordFallback: "Keyword suggestions unavailable: %v",
	},
	LanguageTurkish: {
		system:      "Deneyimli bir SEO içerik stratejistisin. Kısa ve Türkçe cevap ver.",
		keywordLine: "Hedef Anahtar Kelime: %s\n\n",
		gap: `%sBenim İçeriğim:
%s

Rakip İçerik:
%s

Yukarıdaki içerikleri karşılaştır.
- Özellikle hedef anahtar kelimeye göre içerik kalitesini değerlendir.
- Benim içeriğimde eksik olan ama rakibin içeriğinde bulunan başlıklar, açıklamalar veya detayları listele.
- SEO açısından hangi boşlukları kapatmalıyım?`,
		keyword: `Aşağıdaki anahtar kelime için SEO odaklı öneriler üret: "%s"

1. Kelimeyle ilişkili long-tail keyword (n-gram) önerileri.
2. Arama motorunun otomatik tamamlama önerilerine benzer ifadeler.
3. Bu kelimeyle bağlantılı olabilecek entity'ler (markalar, kişiler, kavramlar).
4. Kullanıcının bu kelimeyi yazarken olası arama niyetleri (intent analizi).

Kısa maddeler halinde yaz.`,
		keywordFallback: "Kelime önerileri alınamadı: %v",
	},
}

func promptsFor(language string) promptSet {
	if p, ok := prompts[language]; ok {
		return p
	}
	return prompts[LanguageEnglish]
}

// SupportedLanguage reports whether prompts exist for language.
func SupportedLanguage(language string) bool {
	_, ok := prompts[language]
	return ok
}

func (p promptSet) gapPrompt(myText, competitorText, keyword string) string {
	var header string
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		header = fmt.Sprintf(p.keywordLine, keyword)
	}
	return fmt.Sprintf(p.gap, header, myText, competitorText)
}

func (p promptSet) keywordPrompt(keyword string) string {
	return fmt.Sprintf(p.keyword, keyword)
}

func (p promptSet) fallback(err error) string {
	return fmt.Sprintf(p.keywordFallback, err)
}

// SystemPrompt returns the system message used for every chat call in language.
func SystemPrompt(language string) string {
	return promptsFor(language).system
}
