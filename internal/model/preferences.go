package model

// DefaultCountry is used whenever a preference set carries no country.
const DefaultCountry = "us"

// Preferences governs personalized news retrieval.
// Categories and Sources are independent; both may be empty.
type Preferences struct {
	Categories []string `json:"categories"`
	Sources    []string `json:"sources"`
	Country    string   `json:"country"`
}

// DefaultPreferences is what a user without stored preferences sees.
func DefaultPreferences() Preferences {
	return Preferences{
		Categories: []string{},
		Sources:    []string{},
		Country:    DefaultCountry,
	}
}

// Normalized returns a copy with nil slices replaced by empty ones and an
// empty country replaced by DefaultCountry. Stored records are always normalized
// so a read returns exactly what the last write meant.
func (p Preferences) Normalized() Preferences {
	out := Preferences{
		Categories: append([]string{}, p.Categories...),
		Sources:    append([]string{}, p.Sources...),
		Country:    p.Country,
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}
