package model

// Countries is the closed list of accepted country names, compared exactly
var Countries = []string{
	"United States",
	"Canada",
	"Japan",
	"United Kingdom",
	"France",
	"Germany",
}

// IsCountry reports whether name is one of Countries
func IsCountry(name string) bool {
	for _, c := range Countries {
		if c == name {
			return true
		}
	}
	return false
}
