package dawa

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dawa-cli/internal/fetcher"
)

// DefaultURL is the complete postal-code register. It is served in one
// response; there is no pagination.
const DefaultURL = "https://api.dataforsyningen.dk/postnumre"

// Client fetches postal codes from the DAWA API.
type Client struct {
	fetcher fetcher.Fetcher
	url     string
	decoder *Decoder
}

// NewClient creates a Client reading from url (DefaultURL when empty).
func NewClient(f fetcher.Fetcher, url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{fetcher: f, url: url, decoder: NewDecoder()}
}

// PostalCodes downloads and validates the full register. It fails on the
// first element that does not validate.
func (c *Client) PostalCodes(ctx context.Context) ([]PostalCodeRecord, error) {
	log := zap.L().With(zap.String("component", "dawa.client"))

	body, err := c.fetcher.Download(ctx, c.url)
	if err != nil {
		return nil, &fetchError{err: eris.Wrap(err, "dawa: download")}
	}
	defer body.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	elems, errCh := fetcher.DecodeJSONArray[json.RawMessage](ctx, body)

	var records []PostalCodeRecord
	idx := 0
	for raw := range elems {
		rec, err := c.decoder.Decode(idx, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		idx++
	}
	if err := <-errCh; err != nil {
		return nil, &fetchError{err: eris.Wrap(err, "dawa: parse response")}
	}

	log.Info("fetched postal codes", zap.String("url", c.url), zap.Int("records", len(records)))
	return records, nil
}
