package matching

import (
	"strings"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
)

// Message keys. Farmer type labels use "farmer_type.<type>".
const (
	MsgLandMin     = "land_size_min"
	MsgLandMax     = "land_size_max"
	MsgLandRange   = "land_size_range"
	MsgFarmerType  = "farmer_type"
	MsgCrops       = "crops"
	MsgDistrict    = "district"
	msgFarmerLabel = "farmer_type."
)

// Dictionary maps language to message key to template. Templates use
// {land}, {min}, {max}, {farmerType}, {crops} and {district}.
type Dictionary map[string]map[string]string

var defaultMessages = Dictionary{
	LanguageEnglish: {
		MsgLandMin:    "Your {land} acres meet the minimum land requirement of {min} acres",
		MsgLandMax:    "Your {land} acres are within the maximum limit of {max} acres",
		MsgLandRange:  "Your {land} acres fall within the eligible range of {min} to {max} acres",
		MsgFarmerType: "Open to {farmerType} farmers like you",
		MsgCrops:      "Covers your crops: {crops}",
		MsgDistrict:   "Available in your district, {district}",

		msgFarmerLabel + "small":    "small",
		msgFarmerLabel + "marginal": "marginal",
		msgFarmerLabel + "medium":   "medium",
		msgFarmerLabel + "large":    "large",
		msgFarmerLabel + "tenant":   "tenant",
	},
	LanguageTamil: {
		MsgLandMin:    "உங்கள் {land} ஏக்கர் நிலம் குறைந்தபட்ச தேவையான {min} ஏக்கரை பூர்த்தி செய்கிறது",
		MsgLandMax:    "உங்கள் {land} ஏக்கர் நிலம் அதிகபட்ச வரம்பான {max} ஏக்கருக்குள் உள்ளது",
		MsgLandRange:  "உங்கள் {land} ஏக்கர் நிலம் தகுதியான {min} முதல் {max} ஏக்கர் வரம்பிற்குள் உள்ளது",
		MsgFarmerType: "{farmerType} விவசாயிகளுக்கு இத்திட்டம் பொருந்தும்",
		MsgCrops:      "உங்கள் பயிர்களுக்கு பொருந்தும்: {crops}",
		MsgDistrict:   "உங்கள் மாவட்டத்தில் ({district}) கிடைக்கிறது",

		msgFarmerLabel + "small":    "சிறு",
		msgFarmerLabel + "marginal": "குறு",
		msgFarmerLabel + "medium":   "நடுத்தர",
		msgFarmerLabel + "large":    "பெரிய",
		msgFarmerLabel + "tenant":   "குத்தகை",
	},
}

// DefaultDictionary returns a copy of the built-in English and Tamil
// messages.
func DefaultDictionary() Dictionary {
	return defaultMessages.Merge(nil)
}

// Merge returns a new dictionary with overrides applied on top of d.
// Override keys are matched case-insensitively on the language.
func (d Dictionary) Merge(overrides map[string]map[string]string) Dictionary {
	out := make(Dictionary, len(d)+len(overrides))
	for lang, msgs := range d {
		out[lang] = make(map[string]string, len(msgs))
		for k, v := range msgs {
			out[lang][k] = v
		}
	}
	for lang, msgs := range overrides {
		lang = catalog.Normalize(lang)
		if out[lang] == nil {
			out[lang] = make(map[string]string, len(msgs))
		}
		for k, v := range msgs {
			out[lang][k] = v
		}
	}
	return out
}

// Lookup returns the template for key in language, falling back to English
// and finally to the key itself.
func (d Dictionary) Lookup(language, key string) string {
	if msg, ok := d[catalog.Normalize(language)][key]; ok {
		return msg
	}
	if msg, ok := d[LanguageEnglish][key]; ok {
		return msg
	}
	return key
}

// Supports reports whether the dictionary has its own messages for
// language.
func (d Dictionary) Supports(language string) bool {
	_, ok := d[catalog.Normalize(language)]
	return ok
}

func (d Dictionary) format(language, key string, vars map[string]string) string {
	msg := d.Lookup(language, key)
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
