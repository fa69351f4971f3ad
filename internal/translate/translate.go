// Package translate provides fixed-table translation of report scaffolding
// into the supported display languages. Only the template phrases and the
// answer sentinels are translated; free-text answers pass through unchanged.
// Real machine translation is out of scope.
package translate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Language is a supported display language.
type Language string

const (
	English Language = "english"
	Telugu  Language = "telugu"
	Hindi   Language = "hindi"
)

// ErrUnsupportedLanguage is returned for languages outside the fixed set.
var ErrUnsupportedLanguage = errors.New("translate: unsupported language")

// Languages returns the supported languages in presentation order.
func Languages() []Language {
	return []Language{English, Telugu, Hindi}
}

// phrases maps fixed report phrases to their translations, per language.
// Keys are matched as plain substrings, longest first, so longer phrases
// are never clobbered by a shorter prefix.
var phrases = map[Language]map[string]string{
	Telugu: {
		"Emergency Report Summary:":  "అత్యవసర నివేదిక సారాంశం:",
		"Emergency Medical Report:":  "అత్యవసర వైద్య నివేదిక:",
		"Ambulance Dispatch Report:": "అంబులెన్స్ పంపిణీ నివేదిక:",
		"Immediate medical attention recommended.":                                                       "తక్షణ వైద్య సహాయం సిఫార్సు చేయబడింది.",
		"Recommendation: Immediate emergency care required based on presenting symptoms and vital signs.": "సిఫార్సు: లక్షణాలు మరియు ప్రాణాధార సంకేతాల ఆధారంగా తక్షణ అత్యవసర సంరక్షణ అవసరం.",
		"Recommendation: Dispatch confirmed. Keep the caller's line reachable until the ambulance arrives.": "సిఫార్సు: పంపిణీ నిర్ధారించబడింది. అంబులెన్స్ వచ్చే వరకు కాలర్ లైన్ అందుబాటులో ఉంచండి.",
		"Patient:":        "రోగి:",
		"Condition:":      "పరిస్థితి:",
		"Symptoms:":       "లక్షణాలు:",
		"Duration:":       "వ్యవధి:",
		"Vitals:":         "ప్రాణాధార సంకేతాలు:",
		"History:":        "చరిత్ర:",
		"Allergies:":      "అలెర్జీలు:",
		"Pickup:":         "పికప్:",
		"Destination:":    "గమ్యం:",
		"Caller contact:": "కాలర్ సంప్రదింపు:",
		"No response":     "స్పందన లేదు",
		"Skipped":         "దాటవేయబడింది",
	},
	Hindi: {
		"Emergency Report Summary:":  "आपातकालीन रिपोर्ट सारांश:",
		"Emergency Medical Report:":  "आपातकालीन चिकित्सा रिपोर्ट:",
		"Ambulance Dispatch Report:": "एम्बुलेंस प्रेषण रिपोर्ट:",
		"Immediate medical attention recommended.":                                                       "तत्काल चिकित्सा सहायता की सिफारिश की जाती है।",
		"Recommendation: Immediate emergency care required based on presenting symptoms and vital signs.": "सिफारिश: लक्षणों और महत्वपूर्ण संकेतों के आधार पर तत्काल आपातकालीन देखभाल आवश्यक है।",
		"Recommendation: Dispatch confirmed. Keep the caller's line reachable until the ambulance arrives.": "सिफारिश: प्रेषण की पुष्टि हो गई है। एम्बुलेंस के आने तक कॉलर की लाइन उपलब्ध रखें।",
		"Patient:":        "रोगी:",
		"Condition:":      "स्थिति:",
		"Symptoms:":       "लक्षण:",
		"Duration:":       "अवधि:",
		"Vitals:":         "महत्वपूर्ण संकेत:",
		"History:":        "इतिहास:",
		"Allergies:":      "एलर्जी:",
		"Pickup:":         "पिकअप:",
		"Destination:":    "गंतव्य:",
		"Caller contact:": "कॉलर संपर्क:",
		"No response":     "कोई जवाब नहीं",
		"Skipped":         "छोड़ा गया",
	},
}

// orderedKeys returns the phrase keys sorted longest first, then
// lexicographically, so replacement order is deterministic.
func orderedKeys(table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Report translates the fixed phrases of a composed report into lang.
// English returns the text unchanged.
func Report(text string, lang Language) (string, error) {
	if lang == English {
		return text, nil
	}
	table, ok := phrases[lang]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	for _, phrase := range orderedKeys(table) {
		text = strings.ReplaceAll(text, phrase, table[phrase])
	}
	return text, nil
}

// Parse maps a user-supplied language name to a Language, case-insensitively.
func Parse(name string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "english", "en", "":
		return English, nil
	case "telugu", "te":
		return Telugu, nil
	case "hindi", "hi":
		return Hindi, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}
