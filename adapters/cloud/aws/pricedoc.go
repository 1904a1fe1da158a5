package aws

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"cloudcost/internal/errors"
)

// priceDocument is the parsed shape of one Price List product entry:
// its product attributes and the first on-demand USD rate.
type priceDocument struct {
	attributes map[string]string
	hourlyUSD  decimal.Decimal
}

// parsePriceDocument extracts attributes and the on-demand price from
// the raw Price List JSON. The document nests the rate under
// terms.OnDemand.<offer>.priceDimensions.<dimension>.pricePerUnit.USD.
func parsePriceDocument(raw string) (priceDocument, error) {
	var product struct {
		Product struct {
			Attributes map[string]string `json:"attributes"`
		} `json:"product"`
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					PricePerUnit map[string]string `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return priceDocument{}, errors.Wrap(errors.TypeParsing, "parsing price list document", err)
	}

	doc := priceDocument{attributes: product.Product.Attributes}
	if doc.attributes == nil {
		doc.attributes = map[string]string{}
	}

	for _, offer := range product.Terms.OnDemand {
		for _, dim := range offer.PriceDimensions {
			usd, ok := dim.PricePerUnit["USD"]
			if !ok {
				continue
			}
			price, err := decimal.NewFromString(usd)
			if err != nil {
				continue
			}
			// Zero-rate dimensions are free-tier markers
			if price.IsZero() {
				continue
			}
			doc.hourlyUSD = price
			return doc, nil
		}
	}
	return doc, errors.New(errors.TypePricing, "no on-demand price dimension in document")
}
