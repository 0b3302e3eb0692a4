// Package geo resolves client IP addresses to a country and city.
package geo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Unknown is stored for addresses that cannot be located.
const Unknown = "UNKNOWN"

// ErrNotFound is returned when an address has no location.
var ErrNotFound = errors.New("geo: address not found")

// Location is a country and city name.
type Location struct {
	Country string
	City    string
}

// UnknownLocation is the location of addresses that cannot be located.
var UnknownLocation = Location{Country: Unknown, City: Unknown}

// Locator looks up the location of an IP address.
type Locator interface {
	Lookup(ip string) (Location, error)
}

// Resolve looks up ip with l. A nil l or an address l does not know yields
// UnknownLocation; any other failure is returned.
func Resolve(l Locator, ip string) (Location, error) {
	if l == nil {
		return UnknownLocation, nil
	}
	loc, err := l.Lookup(ip)
	if errors.Is(err, ErrNotFound) {
		return UnknownLocation, nil
	}
	if err != nil {
		return Location{}, err
	}
	return loc, nil
}

// cityReader is the part of *geoip2.Reader used by MaxMindLocator.
type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// MaxMindLocator reads locations from a GeoLite2 or GeoIP2 City database.
type MaxMindLocator struct {
	reader   cityReader
	language string
}

// OpenMaxMind opens the City database at path.
func OpenMaxMind(path string) (*MaxMindLocator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	return &MaxMindLocator{reader: r, language: "en"}, nil
}

// Lookup implements Locator. Unparsable addresses and addresses without a
// country are reported as ErrNotFound.
func (m *MaxMindLocator) Lookup(ip string) (Location, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, ip)
	}

	rec, err := m.reader.City(addr)
	if err != nil {
		return Location{}, fmt.Errorf("failed to look up %s: %w", ip, err)
	}

	country := rec.Country.Names[m.language]
	if country == "" {
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, ip)
	}
	city := rec.City.Names[m.language]
	if city == "" {
		city = Unknown
	}
	return Location{Country: country, City: city}, nil
}

// Close releases the database.
func (m *MaxMindLocator) Close() error {
	return m.reader.Close()
}
