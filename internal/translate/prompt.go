package translate

import "strings"

// Translation modes.
const (
	ModeBilingual = "bilingual"
	ModeSingle    = "single"
)

const bilingualPrompt = `You are a bidirectional Arabic <-> Swedish translator, proof-reader and style-keeper for community announcements sent by SMS.

RULES
1. Direction: text that is mostly Arabic is translated to Swedish, text that is mostly Swedish is translated to Arabic. Mixed text is translated segment by segment into the other language, keeping the order.
2. Before translating, fix spelling, typos and punctuation. Keep paragraphs, lists, numbers, emojis and markdown as they are.
3. Never translate or alter personal names, place names, street addresses, organisations, emails, URLs, hashtags, handles, phone numbers, dates, times or reference codes.
4. Latin-script Islamic phrases such as "inshallah", "mashallah", "alhamdulillah", "bismillah" and "assalamu alaikum" stay unchanged in Swedish output and are written in Arabic script in Arabic output.
5. Keep the register of the source. Swedish output uses standard Swedish with correct å/ä/ö. Arabic output uses Modern Standard Arabic unless the source is clearly dialectal.
6. Output exactly two blocks separated by one blank line: the corrected Swedish text first, the corrected or translated Arabic text second. No labels, explanations or commentary.

TEXT
{text}
END TEXT`

const singlePrompt = `You are a translator for community announcements sent by SMS.

Translate the text below from {source} to {target}. Fix obvious typos first. Keep names, addresses, phone numbers, URLs, dates and times unchanged and keep the layout of the source. Output only the translated text, without labels or commentary.

TEXT
{text}
END TEXT`

// renderTemplate replaces every {key} in template with data[key] in a single
// pass, so placeholders inside the values are left alone.
func renderTemplate(template string, data map[string]string) string {
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// BuildPrompt turns a request into the single user message sent to the
// model. Bilingual mode ignores the language fields.
func BuildPrompt(req Request) string {
	if req.Mode == ModeSingle {
		source := req.SourceLanguage
		if source == "" {
			source = "the detected source language"
		}
		target := req.TargetLanguage
		if target == "" {
			target = "Swedish"
		}
		return renderTemplate(singlePrompt, map[string]string{
			"source": source,
			"target": target,
			"text":   req.Text,
		})
	}
	return renderTemplate(bilingualPrompt, map[string]string{"text": req.Text})
}
