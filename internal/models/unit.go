package models

// DefaultUnit is used when an item is created without a unit.
const DefaultUnit = "pcs"

var unitTranslations = map[string]string{
	"pcs":    "adet",
	"kg":     "kg",
	"L":      "L",
	"pack":   "paket",
	"box":    "kutu",
	"bottle": "şişe",
}

// TranslateUnit returns the localized label of unit, or unit itself when no
// translation is known.
func TranslateUnit(unit string) string {
	if label, ok := unitTranslations[unit]; ok {
		return label
	}
	return unit
}
