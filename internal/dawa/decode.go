package dawa

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// wireRecord mirrors PostalCodeRecord with pointer fields so a missing key can
// be told apart from a zero value.
type wireRecord struct {
	Nr            *int               `json:"nr" validate:"required"`
	Navn          *string            `json:"navn" validate:"required"`
	BBox          []*float64         `json:"bbox" validate:"required,len=4"`
	VisueltCenter []*float64         `json:"visueltcenter" validate:"required,len=2"`
	Kommuner      []wireMunicipality `json:"kommuner" validate:"required,dive"`
	Aendret       *string            `json:"ændret" validate:"required"`
	GeoAendret    *string            `json:"geo_ændret" validate:"required"`
	GeoVersion    *int               `json:"geo_version" validate:"required"`
	DagiID        *string            `json:"dagi_id" validate:"required"`
}

type wireMunicipality struct {
	Href *string `json:"href" validate:"required"`
	Kode *string `json:"kode" validate:"required"`
	Navn *string `json:"navn" validate:"required"`
}

// timestampLayouts are tried in order. Values without a zone are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses the API's ISO-8601 timestamps.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("unrecognised timestamp %q", s)
}

// Decoder validates raw postal-code elements into typed records.
type Decoder struct {
	validate *validator.Validate
}

// NewDecoder returns a Decoder that reports fields by their JSON names.
func NewDecoder() *Decoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Decoder{validate: v}
}

// Decode converts the element at position idx into a PostalCodeRecord. Every
// field is required; type mismatches, missing fields, wrong-length coordinate
// arrays and unparseable timestamps are validation errors.
func (d *Decoder) Decode(idx int, raw json.RawMessage) (PostalCodeRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return PostalCodeRecord{}, eris.Wrapf(ErrValidation,
				"record %d: field %q: expected %s, got %s", idx, typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return PostalCodeRecord{}, eris.Wrapf(ErrValidation, "record %d: %v", idx, err)
	}

	if err := d.validate.Struct(&w); err != nil {
		return PostalCodeRecord{}, eris.Wrapf(ErrValidation, "record %d%s: %s", idx, nrLabel(w.Nr), describe(err))
	}

	bbox, err := coordinates("bbox", w.BBox)
	if err != nil {
		return PostalCodeRecord{}, eris.Wrapf(ErrValidation, "record %d%s: %v", idx, nrLabel(w.Nr), err)
	}
	center, err := coordinates("visueltcenter", w.VisueltCenter)
	if err != nil {
		return PostalCodeRecord{}, eris.Wrapf(ErrValidation, "record %d%s: %v", idx, nrLabel(w.Nr), err)
	}

	modified, err := ParseTimestamp(*w.Aendret)
	if err != nil {
		return PostalCodeRecord{}, eris.Wrapf(ErrValidation, "record %d%s: field \"ændret\": %v", idx, nrLabel(w.Nr), err)
	}
	geoModified, err := ParseTimestamp(*w.GeoAendret)
	if err != nil {
		return PostalCodeRecord{}, eris.Wrapf(ErrValidation, "record %d%s: field \"geo_ændret\": %v", idx, nrLabel(w.Nr), err)
	}

	rec := PostalCodeRecord{
		Nr:             *w.Nr,
		Name:           *w.Navn,
		BBox:           bbox,
		VisualCenter:   center,
		Municipalities: make([]MunicipalityRef, 0, len(w.Kommuner)),
		Modified:       modified,
		GeoModified:    geoModified,
		GeoVersion:     *w.GeoVersion,
		DagiID:         *w.DagiID,
	}
	for _, k := range w.Kommuner {
		rec.Municipalities = append(rec.Municipalities, MunicipalityRef{
			Href: *k.Href,
			Code: *k.Kode,
			Name: *k.Navn,
		})
	}
	return rec, nil
}

// coordinates rejects null elements, which encoding/json would otherwise
// leave as 0.
func coordinates(field string, v []*float64) ([]float64, error) {
	out := make([]float64, len(v))
	for i, f := range v {
		if f == nil {
			return nil, eris.Errorf("field \"%s[%d]\": expected number, got null", field, i)
		}
		out[i] = *f
	}
	return out, nil
}

func nrLabel(nr *int) string {
	if nr == nil {
		return ""
	}
	return fmt.Sprintf(" (nr=%d)", *nr)
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "wireRecord.")
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("field %q failed %s", field, rule))
	}
	return strings.Join(parts, "; ")
}
