package dawa

import (
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var testTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func record(nr int, name string, municipalities ...MunicipalityRef) PostalCodeRecord {
	if municipalities == nil {
		municipalities = []MunicipalityRef{}
	}
	return PostalCodeRecord{
		Nr:             nr,
		Name:           name,
		BBox:           []float64{12.55, 55.70, 12.60, 55.73},
		VisualCenter:   []float64{12.57, 55.715},
		Municipalities: municipalities,
		Modified:       testTime,
		GeoModified:    testTime,
		GeoVersion:     1,
		DagiID:         fmt.Sprintf("dagi-%d", nr),
	}
}

func kommune(code, name string) MunicipalityRef {
	return MunicipalityRef{
		Href: "https://api.dataforsyningen.dk/kommuner/" + code,
		Code: code,
		Name: name,
	}
}

func TestTransform_SingleRecord(t *testing.T) {
	rec := record(2100, "København Ø", kommune("0101", "København"))
	rec.DagiID = "abc"

	tables, err := Transform([]PostalCodeRecord{rec})
	require.NoError(t, err)

	require.Len(t, tables.PostalCodes, 1)
	assert.Equal(t, PostalCodeRow{
		PostalCode:      2100,
		Name:            "København Ø",
		Longitude:       12.57,
		Latitude:        55.715,
		LongitudeStart:  12.55,
		LatitudeStart:   55.70,
		LongitudeEnd:    12.60,
		LatitudeEnd:     55.73,
		ModifiedDate:    testTime,
		GeoModifiedDate: testTime,
		GeoVersion:      1,
		DagiID:          "abc",
	}, tables.PostalCodes[0])

	assert.Equal(t, []MunicipalityRow{{Code: "0101", Name: "København"}}, tables.Municipalities)
	assert.Equal(t, []LinkRow{{PostalCode: 2100, MunicipalityCode: "0101"}}, tables.Links)
}

func TestTransform_SharedMunicipality(t *testing.T) {
	records := []PostalCodeRecord{
		record(2100, "København Ø", kommune("0101", "København")),
		record(2200, "København N", kommune("0101", "København")),
	}

	tables, err := Transform(records)
	require.NoError(t, err)

	assert.Len(t, tables.PostalCodes, 2)
	assert.Equal(t, []MunicipalityRow{{Code: "0101", Name: "København"}}, tables.Municipalities)
	assert.Equal(t, []LinkRow{
		{PostalCode: 2100, MunicipalityCode: "0101"},
		{PostalCode: 2200, MunicipalityCode: "0101"},
	}, tables.Links)
}

func TestTransform_MultipleMunicipalitiesPerPostalCode(t *testing.T) {
	records := []PostalCodeRecord{
		record(2600, "Glostrup", kommune("0161", "Glostrup"), kommune("0153", "Brøndby"), kommune("0163", "Herlev")),
		record(2605, "Brøndby", kommune("0153", "Brøndby")),
	}

	tables, err := Transform(records)
	require.NoError(t, err)

	assert.Len(t, tables.Links, 4)
	assert.Equal(t, []MunicipalityRow{
		{Code: "0161", Name: "Glostrup"},
		{Code: "0153", Name: "Brøndby"},
		{Code: "0163", Name: "Herlev"},
	}, tables.Municipalities)
}

func TestTransform_EmptyMunicipalityList(t *testing.T) {
	records := []PostalCodeRecord{
		record(800, "Høje Taastrup"),
		record(2100, "København Ø", kommune("0101", "København")),
	}

	tables, err := Transform(records)
	require.NoError(t, err)

	assert.Len(t, tables.PostalCodes, 2)
	assert.Len(t, tables.Municipalities, 1)
	assert.Equal(t, []LinkRow{{PostalCode: 2100, MunicipalityCode: "0101"}}, tables.Links)
}

func TestTransform_EmptyInput(t *testing.T) {
	tables, err := Transform(nil)
	require.NoError(t, err)
	assert.Empty(t, tables.PostalCodes)
	assert.Empty(t, tables.Municipalities)
	assert.Empty(t, tables.Links)
}

func TestTransform_FirstSeenNameWins(t *testing.T) {
	records := []PostalCodeRecord{
		record(2100, "København Ø", kommune("0101", "København")),
		record(2200, "København N", kommune("0101", "Københavns Kommune")),
	}

	tables, err := Transform(records)
	require.NoError(t, err)
	assert.Equal(t, []MunicipalityRow{{Code: "0101", Name: "København"}}, tables.Municipalities)
}

func TestTransform_DuplicatePostalCode(t *testing.T) {
	records := []PostalCodeRecord{
		record(2100, "København Ø"),
		record(2100, "København Ø"),
	}

	_, err := Transform(records)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrTransform))
	assert.Contains(t, err.Error(), "duplicate postal code 2100")
}

func TestTransform_MalformedCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *PostalCodeRecord)
		want   string
	}{
		{"bbox too short", func(r *PostalCodeRecord) { r.BBox = r.BBox[:3] }, "expected 4 values, got 3"},
		{"bbox too long", func(r *PostalCodeRecord) { r.BBox = append(r.BBox, 1) }, "expected 4 values, got 5"},
		{"center too short", func(r *PostalCodeRecord) { r.VisualCenter = r.VisualCenter[:1] }, "expected 2 values, got 1"},
		{"center missing", func(r *PostalCodeRecord) { r.VisualCenter = nil }, "expected 2 values, got 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(2100, "København Ø")
			tt.mutate(&rec)
			_, err := Transform([]PostalCodeRecord{rec})
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrTransform))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTransform_DuplicatePairWithinRecord(t *testing.T) {
	rec := record(2100, "København Ø", kommune("0101", "København"), kommune("0101", "København"))
	tables, err := Transform([]PostalCodeRecord{rec})
	require.NoError(t, err)
	assert.Len(t, tables.Links, 1)
}

func TestTransform_NormalizesNames(t *testing.T) {
	decomposed := norm.NFD.String("Køge Ærø")
	rec := record(4600, "  "+decomposed+" ", kommune(" 0259 ", decomposed))

	tables, err := Transform([]PostalCodeRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, "Køge Ærø", tables.PostalCodes[0].Name)
	assert.Equal(t, MunicipalityRow{Code: "0259", Name: "Køge Ærø"}, tables.Municipalities[0])
	assert.Equal(t, "0259", tables.Links[0].MunicipalityCode)
}

func TestTransform_CenterOutsideBBoxIsNotFatal(t *testing.T) {
	rec := record(3700, "Rønne")
	rec.VisualCenter = []float64{14.7, 55.1}
	_, err := Transform([]PostalCodeRecord{rec})
	assert.NoError(t, err)
}

// generated builds n records where record i references municipalities
// (i % 7) and ((i+1) % 7) when i is odd and none when i is divisible by 5.
func generated(n int) []PostalCodeRecord {
	records := make([]PostalCodeRecord, 0, n)
	for i := range n {
		var ms []MunicipalityRef
		switch {
		case i%5 == 0:
		case i%2 == 1:
			ms = []MunicipalityRef{
				kommune(fmt.Sprintf("%04d", i%7), fmt.Sprintf("Kommune %d", i%7)),
				kommune(fmt.Sprintf("%04d", (i+1)%7), fmt.Sprintf("Kommune %d", (i+1)%7)),
			}
		default:
			ms = []MunicipalityRef{kommune(fmt.Sprintf("%04d", i%7), fmt.Sprintf("Kommune %d", i%7))}
		}
		records = append(records, record(1000+i, fmt.Sprintf("By %d", i), ms...))
	}
	return records
}

func TestTransform_Properties(t *testing.T) {
	for _, n := range []int{0, 1, 2, 10, 97} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			records := generated(n)
			tables, err := Transform(records)
			require.NoError(t, err)

			// Bijection on postal codes.
			require.Len(t, tables.PostalCodes, len(records))
			inputCodes := make(map[int]int)
			for _, r := range records {
				inputCodes[r.Nr]++
			}
			for _, row := range tables.PostalCodes {
				assert.Equal(t, 1, inputCodes[row.PostalCode], "postal code %d", row.PostalCode)
				delete(inputCodes, row.PostalCode)
			}
			assert.Empty(t, inputCodes)

			// Municipality codes are a set.
			codes := make(map[string]bool)
			for _, m := range tables.Municipalities {
				assert.False(t, codes[m.Code], "duplicate municipality %s", m.Code)
				codes[m.Code] = true
			}

			// Link count is the sum of list lengths, and every link resolves.
			want := 0
			for _, r := range records {
				want += len(r.Municipalities)
			}
			assert.Len(t, tables.Links, want)
			for _, l := range tables.Links {
				assert.True(t, codes[l.MunicipalityCode], "dangling link to %s", l.MunicipalityCode)
			}
		})
	}
}

func TestLinkAndMunicipalityRows(t *testing.T) {
	records := []PostalCodeRecord{
		record(5000, "Odense C", kommune("0461", "Odense")),
		record(5200, "Odense V", kommune("0461", "Odense")),
	}
	pairs := explode(records)
	assert.Len(t, linkRows(pairs), 2)
	assert.Equal(t, []MunicipalityRow{{Code: "0461", Name: "Odense"}}, municipalityRows(pairs))
}
