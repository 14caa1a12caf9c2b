// Package dawa fetches the Danish postal-code register from the DAWA API and
// reshapes it into flat postal-code, municipality and link rows.
package dawa

import (
	"time"

	"github.com/rotisserie/eris"
)

// Error kinds. Check with eris.Is.
var (
	ErrFetch      = eris.New("fetch failed")
	ErrValidation = eris.New("validation failed")
	ErrTransform  = eris.New("transform failed")
)

// fetchError marks err as a failed fetch. The transport error stays reachable
// through errors.As.
type fetchError struct {
	err error
}

func (e *fetchError) Error() string { return ErrFetch.Error() + ": " + e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }
func (e *fetchError) Is(target error) bool { return target == ErrFetch }

// MunicipalityRef is a municipality ("kommune") as nested under a postal code.
type MunicipalityRef struct {
	Href string `json:"href"`
	Code string `json:"kode"`
	Name string `json:"navn"`
}

// PostalCodeRecord is one element of the /postnumre response.
type PostalCodeRecord struct {
	Nr             int               `json:"nr"`
	Name           string            `json:"navn"`
	BBox           []float64         `json:"bbox"`
	VisualCenter   []float64         `json:"visueltcenter"`
	Municipalities []MunicipalityRef `json:"kommuner"`
	Modified       time.Time         `json:"ændret"`
	GeoModified    time.Time         `json:"geo_ændret"`
	GeoVersion     int               `json:"geo_version"`
	DagiID         string            `json:"dagi_id"`
}

// PostalCodeRow is a row in the postalcode table.
type PostalCodeRow struct {
	PostalCode      int
	Name            string
	Longitude       float64
	Latitude        float64
	LongitudeStart  float64
	LatitudeStart   float64
	LongitudeEnd    float64
	LatitudeEnd     float64
	ModifiedDate    time.Time
	GeoModifiedDate time.Time
	GeoVersion      int
	DagiID          string
}

// MunicipalityRow is a row in the municipality table.
type MunicipalityRow struct {
	Code string
	Name string
}

// LinkRow is a row in the postalcode_to_municipality table.
type LinkRow struct {
	PostalCode       int
	MunicipalityCode string
}

// Tables holds the three row sets derived from one fetch.
type Tables struct {
	PostalCodes    []PostalCodeRow
	Municipalities []MunicipalityRow
	Links          []LinkRow
}
