package normalize

import (
	"strings"
	"unicode"
)

var remoteKeywords = []string{"remote", "work from home", "wfh", "telework", "telecommute", "anywhere"}

// IsRemote reports whether a posting is remote: the explicit flag, a remote
// keyword in the title or location, or an empty or placeholder location.
func IsRemote(explicit bool, title, location string) bool {
	if explicit {
		return true
	}
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return true
	}
	text := strings.ToLower(title) + "\n" + loc
	for _, kw := range remoteKeywords {
		if containsWord(text, kw) {
			return true
		}
	}
	return false
}

// countryAliases maps upper-cased country names and codes to ISO 3166 alpha-2.
var countryAliases = map[string]string{
	"US":                       "US",
	"USA":                      "US",
	"U.S.":                     "US",
	"U.S.A.":                   "US",
	"UNITED STATES":            "US",
	"UNITED STATES OF AMERICA": "US",
	"DE":                       "DE",
	"GERMANY":                  "DE",
	"DEUTSCHLAND":              "DE",
	"GB":                       "GB",
	"UK":                       "GB",
	"UNITED KINGDOM":           "GB",
	"ENGLAND":                  "GB",
	"CA":                       "CA",
	"CANADA":                   "CA",
	"IN":                       "IN",
	"INDIA":                    "IN",
	"AU":                       "AU",
	"AUSTRALIA":                "AU",
	"FR":                       "FR",
	"FRANCE":                   "FR",
	"NL":                       "NL",
	"NETHERLANDS":              "NL",
	"HOLLAND":                  "NL",
	"IE":                       "IE",
	"IRELAND":                  "IE",
	"ES":                       "ES",
	"SPAIN":                    "ES",
	"PL":                       "PL",
	"POLAND":                   "PL",
	"MX":                       "MX",
	"MEXICO":                   "MX",
	"BR":                       "BR",
	"BRAZIL":                   "BR",
}

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true,
	"DE": true, "FL": true, "GA": true, "HI": true, "ID": true, "IL": true, "IN": true,
	"IA": true, "KS": true, "KY": true, "LA": true, "ME": true, "MD": true, "MA": true,
	"MI": true, "MN": true, "MS": true, "MO": true, "MT": true, "NE": true, "NV": true,
	"NH": true, "NJ": true, "NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true, "WI": true,
	"WY": true, "DC": true,
}

// isoCountries holds every ISO 3166-1 alpha-2 code.
var isoCountries = func() map[string]bool {
	codes := strings.Fields(`
		AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ BA BB BD BE BF BG BH BI BJ BL BM BN BO BQ
		BR BS BT BV BW BY BZ CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ DE DJ DK DM
		DO DZ EC EE EG EH ER ES ET FI FJ FK FM FO FR GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS
		GT GU GW GY HK HM HN HR HT HU ID IE IL IM IN IO IQ IR IS IT JE JM JO JP KE KG KH KI KM KN
		KP KR KW KY KZ LA LB LC LI LK LR LS LT LU LV LY MA MC MD ME MF MG MH MK ML MM MN MO MP MQ
		MR MS MT MU MV MW MX MY MZ NA NC NE NF NG NI NL NO NP NR NU NZ OM PA PE PF PG PH PK PL PM
		PN PR PS PT PW PY QA RE RO RS RU RW SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV
		SX SY SZ TC TD TF TG TH TJ TK TL TM TN TO TR TT TV TW TZ UA UG UM US UY UZ VA VC VE VG VI
		VN VU WF WS YE YT ZA ZM ZW`)
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}()

// ambiguousCities resolves "City, XX" where XX is both a US state and a
// country code. Keys are the lower-cased city and the code.
var ambiguousCities = map[string]string{
	// countries
	"berlin|DE": "DE", "munich|DE": "DE", "münchen|DE": "DE", "hamburg|DE": "DE",
	"cologne|DE": "DE", "köln|DE": "DE", "stuttgart|DE": "DE", "düsseldorf|DE": "DE",
	"leipzig|DE": "DE", "dresden|DE": "DE",
	"bengaluru|IN": "IN", "bangalore|IN": "IN", "mumbai|IN": "IN", "delhi|IN": "IN",
	"new delhi|IN": "IN", "hyderabad|IN": "IN", "chennai|IN": "IN", "pune|IN": "IN",
	"kolkata|IN": "IN", "gurgaon|IN": "IN", "gurugram|IN": "IN", "noida|IN": "IN",
	"toronto|CA": "CA", "vancouver|CA": "CA", "montreal|CA": "CA", "montréal|CA": "CA",
	"calgary|CA": "CA", "ottawa|CA": "CA", "edmonton|CA": "CA", "waterloo|CA": "CA",
	"bogota|CO": "CO", "bogotá|CO": "CO", "medellin|CO": "CO", "medellín|CO": "CO",
	"tel aviv|IL": "IL", "jerusalem|IL": "IL", "haifa|IL": "IL", "herzliya|IL": "IL",
	"buenos aires|AR": "AR", "tirana|AL": "AL", "jakarta|ID": "ID", "casablanca|MA": "MA",
	"valletta|MT": "MT", "tunis|TN": "TN", "baku|AZ": "AZ",
	// US states
	"san francisco|CA": "US", "los angeles|CA": "US", "san diego|CA": "US", "san jose|CA": "US",
	"palo alto|CA": "US", "mountain view|CA": "US", "sunnyvale|CA": "US", "oakland|CA": "US",
	"menlo park|CA": "US", "redwood city|CA": "US", "irvine|CA": "US", "santa monica|CA": "US",
	"sacramento|CA": "US", "denver|CO": "US", "boulder|CO": "US", "colorado springs|CO": "US",
	"chicago|IL": "US", "indianapolis|IN": "US", "wilmington|DE": "US", "pittsburgh|PA": "US",
	"philadelphia|PA": "US", "boston|MA": "US", "cambridge|MA": "US", "atlanta|GA": "US",
	"nashville|TN": "US", "arlington|VA": "US", "reston|VA": "US", "richmond|VA": "US",
	"phoenix|AZ": "US", "scottsdale|AZ": "US", "minneapolis|MN": "US", "baltimore|MD": "US",
	"st. louis|MO": "US", "kansas city|MO": "US", "charlotte|NC": "US", "raleigh|NC": "US",
	"durham|NC": "US", "new orleans|LA": "US", "louisville|KY": "US", "boise|ID": "US",
	"omaha|NE": "US", "portland|ME": "US",
}

// DeriveCountry returns the ISO alpha-2 country for a posting, or nil when it
// cannot be determined. An explicit provider value wins. Otherwise the
// trailing location token is read:
//   - "City, Region, CC" and "City, Country Name" resolve to the country.
//   - "City, ST" resolves to US when ST is a state code that is not also a
//     country code, and "City, CC" to the country in the reverse case.
//   - A code that is both ("Denver, CO", "Berlin, DE") is resolved by the
//     city when it is a known one and left nil otherwise.
//
// Unknown country names are left nil rather than guessed.
func DeriveCountry(explicit, location string) *string {
	if code, ok := countryFromValue(explicit); ok {
		return &code
	}

	loc := strings.TrimSpace(stripParenthetical(location))
	if loc == "" {
		return nil
	}

	parts := strings.Split(loc, ",")
	last := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))

	switch {
	case len(parts) == 1 || len(last) != 2:
		if code, ok := countryAliases[last]; ok {
			return &code
		}
		if len(parts) == 1 && isoCountries[last] {
			return &last
		}
	case len(parts) > 2 && isoCountries[last]:
		return &last
	default:
		state, country := usStates[last], isoCountries[last]
		switch {
		case state && !country:
			us := "US"
			return &us
		case country && !state:
			return &last
		case state && country:
			city := strings.ToLower(strings.TrimSpace(parts[len(parts)-2]))
			if code, ok := ambiguousCities[city+"|"+last]; ok {
				return &code
			}
			return nil
		}
		// "London, UK"
		if code, ok := countryAliases[last]; ok {
			return &code
		}
	}

	// "Remote - US", "USA Only"
	for _, tok := range strings.FieldsFunc(loc, func(r rune) bool { return !unicode.IsLetter(r) && r != '.' }) {
		switch tok {
		case "US", "USA", "U.S.", "U.S.A.":
			us := "US"
			return &us
		}
	}
	return nil
}

// CountryFromState returns US for a provider-supplied US state code.
func CountryFromState(state string) *string {
	if usStates[strings.ToUpper(strings.TrimSpace(state))] {
		us := "US"
		return &us
	}
	return nil
}

func countryFromValue(v string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(v))
	if upper == "" {
		return "", false
	}
	if code, ok := countryAliases[upper]; ok {
		return code, true
	}
	if len(upper) == 2 && isLetters(upper) {
		return upper, true
	}
	return "", false
}

func stripParenthetical(s string) string {
	if i := strings.Index(s, "("); i >= 0 {
		return s[:i]
	}
	return s
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
