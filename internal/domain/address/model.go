package address

import (
	"fmt"
	"regexp"
	"strings"
)

// Province is a first-level division. Region fields come from the dataset
// grouping and are informational.
type Province struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	RegionCode string `json:"region_code"`
	RegionName string `json:"region_name"`
}

// City is a city or municipality inside a province.
type City struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ProvinceCode string `json:"province_code"`
}

// Barangay is the smallest division. Its code is only unique within its
// city.
type Barangay struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	CityCode string `json:"city_code"`
}

// Resolved holds the names behind a set of address codes.
type Resolved struct {
	Province string `json:"province"`
	City     string `json:"city"`
	Barangay string `json:"barangay,omitempty"`
}

var whitespace = regexp.MustCompile(`\s+`)

// ProvinceCode derives a province code: whitespace runs become "_" and
// the result is upper-cased. "Ilocos Norte" -> "ILOCOS_NORTE".
func ProvinceCode(name string) string {
	return strings.ToUpper(whitespace.ReplaceAllString(name, "_"))
}

// CityCode derives a city code: whitespace runs become "_" and the result
// is lower-cased. "LAOAG CITY" -> "laoag_city".
func CityCode(name string) string {
	return strings.ToLower(whitespace.ReplaceAllString(name, "_"))
}

// BarangayCode derives the code of the i-th (0-based) barangay in its
// city's list: "B" followed by the 1-based index padded to three digits.
func BarangayCode(i int) string {
	return fmt.Sprintf("B%03d", i+1)
}

// nameFromCode reverses a province or city code back into a name. The
// transform is lossy: names with repeated whitespace do not round-trip.
func nameFromCode(code string) string {
	return strings.ReplaceAll(code, "_", " ")
}

// matchesCode reports whether name is the one code was derived from,
// compared case-insensitively.
func matchesCode(name, code string) bool {
	return strings.ToUpper(name) == strings.ToUpper(nameFromCode(code))
}
