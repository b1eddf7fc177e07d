package producer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"changewatch/triggerd/internal/model"
)

// Marker is a string whose presence on a product page decides availability.
type Marker struct {
	Text string
	// PresentMeansInStock flips the reading: when false the marker signals
	// that the product is unavailable.
	PresentMeansInStock bool
}

var (
	AmazonMarker = Marker{Text: `type="submit" value="Add to Cart"`, PresentMeansInStock: true}
	TargetMarker = Marker{Text: "Out of stock in stores near you", PresentMeansInStock: false}
)

func AmazonURL(domain, asin string) string {
	return fmt.Sprintf("https://www.amazon.%s/dp/%s", domain, url.PathEscape(asin))
}

func TargetURL(id string) string {
	return fmt.Sprintf("https://www.target.com/p/%s", url.PathEscape(id))
}

// Indicate maps page content to an availability reading.
func (m Marker) Indicate(content string) model.Indicator {
	if strings.Contains(content, m.Text) == m.PresentMeansInStock {
		return model.InStock
	}
	return model.OutOfStock
}

// PageIndicator fetches the page at pageURL and reads its availability through m.
func (c *Client) PageIndicator(ctx context.Context, source, pageURL string, m Marker) (model.Indicator, error) {
	body, err := c.get(ctx, source, pageURL)
	if err != nil {
		return model.OutOfStock, err
	}
	return m.Indicate(string(body)), nil
}
