package winesearcher

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vintro/wineresolver/internal/wine"
)

var vintageSegment = regexp.MustCompile(`/(\d{4})/`)

// Parse extracts a wine snapshot and its offers from a search result
// page. It returns wine.ErrUnparseablePage when the markup carries no
// recognizable wine.
func Parse(html string) (*wine.Snapshot, []wine.Offer, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("build document: %w", err)
	}

	heading := doc.Find("h1").First()
	idAttr, hasID := heading.Attr("data-name-id")
	name := strings.TrimSpace(heading.Text())
	if !hasID || name == "" {
		return nil, nil, wine.ErrUnparseablePage
	}
	externalID, err := strconv.Atoi(strings.TrimSpace(idAttr))
	if err != nil {
		return nil, nil, wine.ErrUnparseablePage
	}

	snap := &wine.Snapshot{
		ExternalID: wine.Ptr(externalID),
		Name:       wine.Ptr(name),
		Vintage:    wine.NonVintage,
	}

	if ogURL, ok := metaContent(doc, `meta[property="og:url"]`); ok {
		snap.URL = wine.Ptr(ogURL)
		if m := vintageSegment.FindStringSubmatch(ogURL); m != nil {
			if v, convErr := strconv.Atoi(m[1]); convErr == nil {
				snap.Vintage = v
			}
		}
	}
	snap.ID = wine.SnapshotID(externalID, snap.Vintage)

	if desc := reviewText(doc); desc != "" {
		snap.Description = wine.Ptr(desc)
	}
	if region, ok := metaContent(doc, `meta[name="productRegion"]`); ok {
		snap.Region = wine.Ptr(region)
	}
	if origin, ok := metaContent(doc, `meta[name="productOrigin"]`); ok {
		snap.Origin = wine.Ptr(origin)
	}
	if variety, ok := metaContent(doc, `meta[name="productVarietal"]`); ok {
		snap.GrapeVariety = wine.Ptr(variety)
	}
	if image, ok := metaContent(doc, `meta[property="og:image"]`); ok {
		snap.Image = wine.Ptr(image)
	}
	if priceDesc, ok := metaContent(doc, `meta[name="description"]`); ok {
		snap.AveragePrice = extractAveragePrice(priceDesc)
	}

	styleText := strings.TrimSpace(
		doc.Find("span.prod-profile__style span.font-light-bold").First().Text(),
	)
	if wineType, wineStyle, found := strings.Cut(styleText, " - "); found {
		snap.WineType = wine.Ptr(wineType)
		snap.WineStyle = wine.Ptr(wineStyle)
	}

	if producer, ok := doc.Find("a#MoreProducerDetail").First().Attr("title"); ok {
		snap.Producer = wine.Ptr(strings.Replace(producer, "More information about ", "", 1))
	}

	offers, count := parseOffers(doc.Find("div#pjax-offers"), snap.ID)
	snap.OffersCount = count
	snap.MinPrice = minUnitPrice(offers)

	return snap, offers, nil
}

// parseOffers walks the offer listing section. Cards missing a parseable
// main price are skipped entirely; every other field degrades to nil.
func parseOffers(section *goquery.Selection, wineID string) ([]wine.Offer, int) {
	if section.Length() == 0 {
		return nil, 0
	}
	// An auto-expanded search means the site found nothing at this exact
	// name+vintage and padded the page with lookalikes.
	if section.Find("div.auto-expand-card").Length() > 0 {
		return nil, 0
	}

	count := 0
	if countText := strings.TrimSpace(section.Find("span.font-weight-bold").First().Text()); countText != "" {
		fields := strings.Fields(countText)
		if n, err := strconv.Atoi(fields[0]); err == nil {
			count = n
		}
	}

	var offers []wine.Offer
	section.Find("div.offer-card__container").Each(func(_ int, card *goquery.Selection) {
		priceSection := card.Find("div.offer-card__price-section").First()
		if priceSection.Length() == 0 {
			return
		}
		mainDetail := priceSection.Find("div.price__detail_main").First()
		if mainDetail.Length() == 0 {
			return
		}
		price, err := parsePrice(mainDetail.Text())
		if err != nil {
			return
		}

		offer := wine.Offer{WineID: wineID, Price: price}

		secondary := priceSection.Find("div.price__detail_secondary")
		if secondary.Length() == 0 {
			offer.UnitPrice = price
		} else {
			unitText, _, _ := strings.Cut(secondary.First().Text(), "/")
			unitPrice, unitErr := parsePrice(unitText)
			if unitErr != nil {
				return
			}
			offer.UnitPrice = unitPrice
		}

		if seller := strings.TrimSpace(card.Find("a.offer-card__merchant-name").First().Text()); seller != "" {
			offer.SellerName = wine.Ptr(seller)
		}
		if href, ok := card.Find("a.col2").First().Attr("href"); ok {
			if decoded, decodeErr := url.QueryUnescape(href); decodeErr == nil {
				offer.URL = wine.Ptr(decoded)
			} else {
				offer.URL = wine.Ptr(href)
			}
		}
		if location := strings.TrimSpace(card.Find("div.offer-card__location-address").First().Text()); location != "" {
			parts := strings.Split(location, ":")
			offer.SellerRegion = wine.Ptr(strings.TrimSpace(parts[len(parts)-1]))
		}
		if flagClass, ok := card.Find("svg.offer-card__location-flag").First().Attr("class"); ok {
			fields := strings.Fields(flagClass)
			if len(fields) > 0 {
				country := strings.ToUpper(strings.TrimPrefix(fields[len(fields)-1], "icon-flag-"))
				offer.SellerCountry = wine.Ptr(country)
			}
		}
		if desc := strings.TrimSpace(card.Find("div.mb-2.small.d-full-card-only").First().Text()); desc != "" {
			offer.Description = wine.Ptr(desc)
		}

		offers = append(offers, offer)
	})

	return offers, count
}

func metaContent(doc *goquery.Document, selector string) (string, bool) {
	content, ok := doc.Find(selector).First().Attr("content")
	if !ok || content == "" {
		return "", false
	}
	return content, true
}

// reviewText joins the critic review paragraphs into one description.
func reviewText(doc *goquery.Document) string {
	var parts []string
	doc.Find("li.prod-profile__review li.smaller p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// extractAveragePrice pulls the dollar amount out of the page's
// description meta, e.g. "... Average price $123.45 / 750ml ...".
func extractAveragePrice(description string) *float64 {
	_, after, found := strings.Cut(description, "$")
	if !found {
		return nil
	}
	amount, _, _ := strings.Cut(after, "/")
	amount = strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return nil
	}
	return &value
}

func parsePrice(text string) (*float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(text, "$", ""), ",", ""))
	if cleaned == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", text, err)
	}
	return &value, nil
}

func minUnitPrice(offers []wine.Offer) *float64 {
	var minPrice *float64
	for _, o := range offers {
		if o.UnitPrice == nil {
			continue
		}
		if minPrice == nil || *o.UnitPrice < *minPrice {
			v := *o.UnitPrice
			minPrice = &v
		}
	}
	return minPrice
}
