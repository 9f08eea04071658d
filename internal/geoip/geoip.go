package geoip

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/oschwald/maxminddb-golang"

	"github.com/sendrec/disha/internal/httputil"
)

// Location is where a request came from. Fields are empty when unknown.
type Location struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

type Resolver struct {
	db *maxminddb.Reader
}

type geoResult struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
}

// New opens the MaxMind database at dbPath. An empty or unreadable path
// yields a resolver that knows nothing.
func New(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	db, err := maxminddb.Open(dbPath)
	if err != nil {
		slog.Warn("geoip: failed to open database, geolocation disabled", "path", dbPath, "error", err)
		return &Resolver{}, nil
	}
	slog.Info("geoip: loaded database", "path", dbPath)
	return &Resolver{db: db}, nil
}

func (r *Resolver) Lookup(ipStr string) Location {
	if r == nil || r.db == nil || ipStr == "" {
		return Location{}
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Location{}
	}
	var result geoResult
	if err := r.db.Lookup(ip, &result); err != nil {
		return Location{}
	}
	return Location{Country: result.Country.ISOCode, City: result.City.Names["en"]}
}

// LookupRequest resolves the client address of r.
func (r *Resolver) LookupRequest(req *http.Request) Location {
	return r.Lookup(httputil.ClientIP(req))
}

func (r *Resolver) Close() error {
	if r != nil && r.db != nil {
		return r.db.Close()
	}
	return nil
}
