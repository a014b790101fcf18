package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// fallbackLanguage is used when a name is missing in the configured language.
const fallbackLanguage = "en"

// MMDB reads locations from MaxMind City and, optionally, ASN databases.
type MMDB struct {
	city     *geoip2.Reader
	asn      *geoip2.Reader
	language string
}

// OpenMMDB opens the City database at cityPath and, when asnPath is not
// empty, the ASN database used for the ISP field.
func OpenMMDB(cityPath, asnPath, language string) (*MMDB, error) {
	city, err := geoip2.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("open city database %s: %w", cityPath, err)
	}

	db := &MMDB{city: city, language: language}
	if db.language == "" {
		db.language = fallbackLanguage
	}

	if asnPath != "" {
		asn, err := geoip2.Open(asnPath)
		if err != nil {
			city.Close()
			return nil, fmt.Errorf("open ASN database %s: %w", asnPath, err)
		}
		db.asn = asn
	}

	return db, nil
}

// Lookup implements Source.
func (db *MMDB) Lookup(addr string) (Record, error) {
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return Record{}, fmt.Errorf("not an IPv4 address: %q", addr)
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return Record{}, ErrNotFound
	}

	city, err := db.city.City(ip)
	if err != nil {
		return Record{}, err
	}
	rec := recordFromCity(city, db.language)

	if db.asn != nil {
		if asn, err := db.asn.ASN(ip); err == nil {
			rec.ISP = asn.AutonomousSystemOrganization
		}
	}

	if rec == (Record{}) {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Close releases both databases.
func (db *MMDB) Close() error {
	var err error
	if db.asn != nil {
		err = db.asn.Close()
	}
	if cerr := db.city.Close(); cerr != nil {
		err = cerr
	}
	return err
}

func recordFromCity(c *geoip2.City, language string) Record {
	rec := Record{
		Country: pickName(c.Country.Names, language),
		City:    pickName(c.City.Names, language),
	}
	if len(c.Subdivisions) > 0 {
		rec.Region = pickName(c.Subdivisions[0].Names, language)
	}
	return rec
}

func pickName(names map[string]string, language string) string {
	if n, ok := names[language]; ok && n != "" {
		return n
	}
	return names[fallbackLanguage]
}
