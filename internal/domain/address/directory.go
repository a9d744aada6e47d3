package address

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/clinic/clinic/internal/platform/apperr"
)

//go:embed data/ph_address.json
var bundled []byte

type rawRegion struct {
	RegionName   string                 `json:"region_name"`
	ProvinceList map[string]rawProvince `json:"province_list"`
}

type rawProvince struct {
	MunicipalityList map[string]rawCity `json:"municipality_list"`
}

type rawCity struct {
	BarangayList []string `json:"barangay_list"`
}

type provinceEntry struct {
	Province
	cities []cityEntry
}

type cityEntry struct {
	City
	barangays []string
}

// Directory is the read-only address hierarchy, built once at start-up.
type Directory struct {
	provinces []provinceEntry
}

// Default loads the bundled dataset.
func Default() (*Directory, error) {
	return Load(bytes.NewReader(bundled))
}

// LoadFile loads a dataset from path, or the bundled one when path is empty.
func LoadFile(path string) (*Directory, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open address dataset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses the nested region -> province -> municipality -> barangay
// dataset. Provinces and cities are ordered by name; barangays keep the
// dataset order because their codes depend on it.
func Load(r io.Reader) (*Directory, error) {
	var raw map[string]rawRegion
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode address dataset: %w", err)
	}

	byName := make(map[string]*provinceEntry)
	for regionCode, region := range raw {
		for provName, prov := range region.ProvinceList {
			pe, ok := byName[provName]
			if !ok {
				pe = &provinceEntry{Province: Province{
					Code:       ProvinceCode(provName),
					Name:       provName,
					RegionCode: regionCode,
					RegionName: region.RegionName,
				}}
				byName[provName] = pe
			}
			for cityName, city := range prov.MunicipalityList {
				pe.cities = append(pe.cities, cityEntry{
					City: City{
						Code:         CityCode(cityName),
						Name:         cityName,
						ProvinceCode: pe.Code,
					},
					barangays: append([]string(nil), city.BarangayList...),
				})
			}
		}
	}

	d := &Directory{provinces: make([]provinceEntry, 0, len(byName))}
	for _, pe := range byName {
		sort.Slice(pe.cities, func(i, j int) bool { return pe.cities[i].Name < pe.cities[j].Name })
		d.provinces = append(d.provinces, *pe)
	}
	sort.Slice(d.provinces, func(i, j int) bool { return d.provinces[i].Name < d.provinces[j].Name })
	return d, nil
}

// Provinces returns every province sorted by name.
func (d *Directory) Provinces() []Province {
	out := make([]Province, len(d.provinces))
	for i, p := range d.provinces {
		out[i] = p.Province
	}
	return out
}

func (d *Directory) province(code string) (*provinceEntry, bool) {
	for i := range d.provinces {
		if matchesCode(d.provinces[i].Name, code) {
			return &d.provinces[i], true
		}
	}
	return nil, false
}

// Cities returns the cities of a province.
func (d *Directory) Cities(provinceCode string) ([]City, error) {
	p, ok := d.province(provinceCode)
	if !ok {
		return nil, apperr.NotFound("Province", provinceCode)
	}
	out := make([]City, len(p.cities))
	for i, c := range p.cities {
		out[i] = c.City
	}
	return out, nil
}

// city finds the first city whose name matches cityCode. A non-empty
// provinceCode restricts the search to that province.
func (d *Directory) city(provinceCode, cityCode string) (*cityEntry, error) {
	if provinceCode != "" {
		p, ok := d.province(provinceCode)
		if !ok {
			return nil, apperr.NotFound("Province", provinceCode)
		}
		for i := range p.cities {
			if matchesCode(p.cities[i].Name, cityCode) {
				return &p.cities[i], nil
			}
		}
		return nil, apperr.NotFound("City", cityCode)
	}
	for pi := range d.provinces {
		p := &d.provinces[pi]
		for i := range p.cities {
			if matchesCode(p.cities[i].Name, cityCode) {
				return &p.cities[i], nil
			}
		}
	}
	return nil, apperr.NotFound("City", cityCode)
}

// Barangays returns the barangays of a city. City names repeat across
// provinces, so provinceCode may be given to pick the right one.
func (d *Directory) Barangays(cityCode, provinceCode string) ([]Barangay, error) {
	c, err := d.city(provinceCode, cityCode)
	if err != nil {
		return nil, err
	}
	out := make([]Barangay, len(c.barangays))
	for i, name := range c.barangays {
		out[i] = Barangay{Code: BarangayCode(i), Name: name, CityCode: c.Code}
	}
	return out, nil
}

// Resolve returns the names behind a province, city and optional barangay
// code.
func (d *Directory) Resolve(provinceCode, cityCode, barangayCode string) (*Resolved, error) {
	p, ok := d.province(provinceCode)
	if !ok {
		return nil, apperr.NotFound("Province", provinceCode)
	}
	c, err := d.city(provinceCode, cityCode)
	if err != nil {
		return nil, err
	}
	res := &Resolved{Province: p.Name, City: c.Name}
	if barangayCode == "" {
		return res, nil
	}
	for i, name := range c.barangays {
		if BarangayCode(i) == barangayCode {
			res.Barangay = name
			return res, nil
		}
	}
	return nil, apperr.NotFound("Barangay", barangayCode)
}

// Stats counts the entries in the directory.
func (d *Directory) Stats() (provinces, cities, barangays int) {
	for _, p := range d.provinces {
		provinces++
		for _, c := range p.cities {
			cities++
			barangays += len(c.barangays)
		}
	}
	return provinces, cities, barangays
}
