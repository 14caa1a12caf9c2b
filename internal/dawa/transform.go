package dawa

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// exploded is one (postal code, municipality) pair.
type exploded struct {
	postalCode int
	code       string
	name       string
}

// Transform derives the postalcode, municipality and postalcode_to_municipality
// row sets from the fetched records. It has no side effects besides logging.
//
// Municipality names are first-seen wins: when a code appears with differing
// names, the name from the earliest record (in input order) is kept.
func Transform(records []PostalCodeRecord) (*Tables, error) {
	postalCodes, err := PostalCodeRows(records)
	if err != nil {
		return nil, err
	}
	pairs := explode(records)
	return &Tables{
		PostalCodes:    postalCodes,
		Municipalities: municipalityRows(pairs),
		Links:          linkRows(pairs),
	}, nil
}

// PostalCodeRows projects each record onto a postalcode row, splitting the
// bbox and visual center into scalar columns. Duplicate codes and
// wrong-length coordinate arrays are errors.
func PostalCodeRows(records []PostalCodeRecord) ([]PostalCodeRow, error) {
	log := zap.L().With(zap.String("component", "dawa.transform"))

	rows := make([]PostalCodeRow, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	for i, rec := range records {
		if _, dup := seen[rec.Nr]; dup {
			return nil, eris.Wrapf(ErrTransform, "record %d: duplicate postal code %d", i, rec.Nr)
		}
		seen[rec.Nr] = struct{}{}

		bbox, err := ParseBBox(rec.BBox)
		if err != nil {
			return nil, eris.Wrapf(ErrTransform, "record %d (nr=%d): %v", i, rec.Nr, err)
		}
		center, err := ParseCoordinates(rec.VisualCenter)
		if err != nil {
			return nil, eris.Wrapf(ErrTransform, "record %d (nr=%d): visueltcenter: %v", i, rec.Nr, err)
		}
		if !bbox.Contains(center) {
			log.Warn("visual center outside bbox",
				zap.Int("postalcode", rec.Nr),
				zap.Float64s("bbox", bbox.Slice()),
				zap.Float64s("center", []float64{center.Longitude, center.Latitude}),
			)
		}

		rows = append(rows, PostalCodeRow{
			PostalCode:      rec.Nr,
			Name:            normalize(rec.Name),
			Longitude:       center.Longitude,
			Latitude:        center.Latitude,
			LongitudeStart:  bbox.LongitudeStart,
			LatitudeStart:   bbox.LatitudeStart,
			LongitudeEnd:    bbox.LongitudeEnd,
			LatitudeEnd:     bbox.LatitudeEnd,
			ModifiedDate:    rec.Modified,
			GeoModifiedDate: rec.GeoModified,
			GeoVersion:      rec.GeoVersion,
			DagiID:          rec.DagiID,
		})
	}
	return rows, nil
}

func explode(records []PostalCodeRecord) []exploded {
	var out []exploded
	for _, rec := range records {
		for _, m := range rec.Municipalities {
			out = append(out, exploded{
				postalCode: rec.Nr,
				code:       strings.TrimSpace(m.Code),
				name:       normalize(m.Name),
			})
		}
	}
	return out
}

// linkRows keeps input order and drops repeated pairs, which the composite
// primary key would reject.
func linkRows(pairs []exploded) []LinkRow {
	type key struct {
		postalCode int
		code       string
	}
	rows := make([]LinkRow, 0, len(pairs))
	seen := make(map[key]struct{}, len(pairs))
	for _, p := range pairs {
		k := key{p.postalCode, p.code}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, LinkRow{PostalCode: p.postalCode, MunicipalityCode: p.code})
	}
	return rows
}

func municipalityRows(pairs []exploded) []MunicipalityRow {
	var rows []MunicipalityRow
	index := make(map[string]int)
	for _, p := range pairs {
		if i, ok := index[p.code]; ok {
			if rows[i].Name != p.name {
				zap.L().Debug("conflicting municipality name, keeping first seen",
					zap.String("municipalitycode", p.code),
					zap.String("kept", rows[i].Name),
					zap.String("ignored", p.name),
					zap.Int("postalcode", p.postalCode),
				)
			}
			continue
		}
		index[p.code] = len(rows)
		rows = append(rows, MunicipalityRow{Code: p.code, Name: p.name})
	}
	return rows
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
