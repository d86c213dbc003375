package language

import "sort"

// DefaultCode is the fallback target code used whenever a selection cannot
// be resolved against the backend's supported set.
const DefaultCode = "eng_Latn"

// options maps human-readable language names to the NLLB codes the
// translation backend recognises. This is a closed set: the backend defines
// it, the gateway only mirrors it.
var options = map[string]string{
	"English":            "eng_Latn",
	"Hindi":              "hin_Deva",
	"Bengali":            "ben_Beng",
	"Marathi":            "mar_Deva",
	"Telugu":             "tel_Telu",
	"Tamil":              "tam_Taml",
	"Gujarati":           "guj_Gujr",
	"Kannada":            "kan_Knda",
	"Malayalam":          "mal_Mlym",
	"Punjabi":            "pan_Guru",
	"Odia":               "ory_Orya",
	"Urdu":               "urd_Arab",
	"Assamese":           "asm_Beng",
	"Bodo":               "brx_Deva",
	"Dogri":              "doi_Deva",
	"Konkani":            "kok_Deva",
	"Maithili":           "mai_Deva",
	"Meitei (Manipuri)":  "mni_Beng",
	"Sanskrit":           "san_Deva",
	"Santali":            "sat_Olck",
	"Sindhi":             "snd_Arab",
	"Kashmiri":           "kas_Arab",
	"Nepali":             "npi_Deva",
	"Tulu":               "tcy_Knda",
	"French":             "fra_Latn",
	"Spanish":            "spa_Latn",
	"German":             "deu_Latn",
	"Portuguese":         "por_Latn",
	"Chinese (Simplified)": "zho_Hans",
	"Japanese":           "jpn_Jpan",
	"Korean":             "kor_Hang",
	"Arabic":             "ara_Arab",
}

// codes is the reverse index so already-resolved codes pass through Resolve.
var codes = func() map[string]bool {
	m := make(map[string]bool, len(options))
	for _, code := range options {
		m[code] = true
	}
	return m
}()

// Resolve maps a UI selection to a backend code. The selection may be a
// display name ("Hindi") or an already-resolved code ("hin_Deva"). Unknown
// selections fall back to DefaultCode rather than producing an invalid code.
func Resolve(selection string) string {
	if code, ok := options[selection]; ok {
		return code
	}
	if codes[selection] {
		return selection
	}
	return DefaultCode
}

// Known reports whether a selection resolves without the fallback.
func Known(selection string) bool {
	if _, ok := options[selection]; ok {
		return true
	}
	return codes[selection]
}

// Names returns the display names of the supported set, sorted for stable
// rendering in selectors.
func Names() []string {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
