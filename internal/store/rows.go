package store

import "github.com/sells-group/dawa-cli/internal/dawa"

const (
	postalCodeTable   = "postalcode"
	municipalityTable = "municipality"
	linkTable         = "postalcode_to_municipality"
)

var (
	postalCodeColumns = []string{
		"postalcode", "name", "longitude", "latitude",
		"longitude_start", "latitude_start", "longitude_end", "latitude_end",
		"modified_date", "geo_modified_date", "geo_version", "dagi_id",
	}
	municipalityColumns = []string{"municipalitycode", "municipalityname"}
	linkColumns         = []string{"postalcode", "municipalitycode"}
)

// tableSpec describes one destination table in load order.
type tableSpec struct {
	name    string
	columns []string
	keys    []string
	rows    [][]any
}

// loadOrder lists the tables parents first so foreign keys always resolve.
func loadOrder(t *dawa.Tables) []tableSpec {
	return []tableSpec{
		{name: postalCodeTable, columns: postalCodeColumns, keys: []string{"postalcode"}, rows: postalCodeValues(t.PostalCodes)},
		{name: municipalityTable, columns: municipalityColumns, keys: []string{"municipalitycode"}, rows: municipalityValues(t.Municipalities)},
		{name: linkTable, columns: linkColumns, keys: linkColumns, rows: linkValues(t.Links)},
	}
}

// deleteOrder is loadOrder reversed.
var deleteOrder = []string{linkTable, postalCodeTable, municipalityTable}

func postalCodeValues(rows []dawa.PostalCodeRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.PostalCode, r.Name, r.Longitude, r.Latitude,
			r.LongitudeStart, r.LatitudeStart, r.LongitudeEnd, r.LatitudeEnd,
			r.ModifiedDate, r.GeoModifiedDate, r.GeoVersion, r.DagiID,
		}
	}
	return out
}

func municipalityValues(rows []dawa.MunicipalityRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.Code, r.Name}
	}
	return out
}

func linkValues(rows []dawa.LinkRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.PostalCode, r.MunicipalityCode}
	}
	return out
}
