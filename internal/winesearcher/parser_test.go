package winesearcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vintro/wineresolver/internal/wine"
)

const fullPageHTML = `<html><head>
<meta property="og:url" content="https://www.wine-searcher.com/find/opus-one/2018/usa" />
<meta property="og:image" content="https://img.wine-searcher.com/images/opus-one.jpg" />
<meta name="description" content="Critics rate this among Napa's finest. Average price: $349.00 / 750ml." />
<meta name="productRegion" content="Napa Valley" />
<meta name="productOrigin" content="Oakville, Napa Valley, California" />
<meta name="productVarietal" content="Cabernet Sauvignon - Merlot" />
</head><body>
<h1 data-name-id="14539">Opus One, Napa Valley</h1>
<span class="prod-profile__style"><span class="font-light-bold">Red - Bold and Structured</span></span>
<a id="MoreProducerDetail" title="More information about Opus One Winery" href="/producer/opus-one">Producer</a>
<ul><li class="prod-profile__review"><ul><li class="smaller">
<p>A powerful, polished wine.</p>
<p>Built to age for decades.</p>
</li></ul></li></ul>
<div id="pjax-offers">
  <div><span class="font-weight-bold">24 offers</span></div>
  <div class="offer-card__container">
    <a class="offer-card__merchant-name">Grand Cru Cellars</a>
    <div class="offer-card__price-section">
      <div class="price__detail_main">$1,234.56</div>
      <div class="price__detail_secondary">$411.52 / 750ml</div>
    </div>
    <a class="col2" href="https://merchant.example/buy%20now">View offer</a>
    <div class="offer-card__location-address">Ships to: California</div>
    <svg class="offer-card__location-flag icon-flag-us"></svg>
    <div class="mb-2 small d-full-card-only">OWC of 6, pristine provenance</div>
  </div>
  <div class="offer-card__container">
    <a class="offer-card__merchant-name">Call Us Wines</a>
    <div class="offer-card__price-section">
      <div class="price__detail_main">Call for price</div>
    </div>
  </div>
  <div class="offer-card__container">
    <a class="offer-card__merchant-name">Bottle Shop</a>
    <div class="offer-card__price-section">
      <div class="price__detail_main">$350.00</div>
    </div>
  </div>
</div>
</body></html>`

func TestParseFullPage(t *testing.T) {
	t.Parallel()

	snap, offers, err := Parse(fullPageHTML)
	require.NoError(t, err)
	require.NotNil(t, snap)

	require.Equal(t, "14539_2018", snap.ID)
	require.Equal(t, 14539, *snap.ExternalID)
	require.Equal(t, 2018, snap.Vintage)
	require.Equal(t, "Opus One, Napa Valley", *snap.Name)
	require.Equal(t, "https://www.wine-searcher.com/find/opus-one/2018/usa", *snap.URL)
	require.Equal(t, "A powerful, polished wine. Built to age for decades.", *snap.Description)
	require.Equal(t, "Napa Valley", *snap.Region)
	require.Equal(t, "Oakville, Napa Valley, California", *snap.Origin)
	require.Equal(t, "Cabernet Sauvignon - Merlot", *snap.GrapeVariety)
	require.Equal(t, "https://img.wine-searcher.com/images/opus-one.jpg", *snap.Image)
	require.Equal(t, "Opus One Winery", *snap.Producer)
	require.InDelta(t, 349.00, *snap.AveragePrice, 0.001)
	require.Equal(t, "Red", *snap.WineType)
	require.Equal(t, "Bold and Structured", *snap.WineStyle)
	require.Equal(t, 24, snap.OffersCount)

	// The unpriced card is skipped; two survive.
	require.Len(t, offers, 2)

	first := offers[0]
	require.Equal(t, snap.ID, first.WineID)
	require.InDelta(t, 1234.56, *first.Price, 0.001)
	require.InDelta(t, 411.52, *first.UnitPrice, 0.001)
	require.Equal(t, "Grand Cru Cellars", *first.SellerName)
	require.Equal(t, "https://merchant.example/buy now", *first.URL)
	require.Equal(t, "California", *first.SellerRegion)
	require.Equal(t, "US", *first.SellerCountry)
	require.Equal(t, "OWC of 6, pristine provenance", *first.Description)

	second := offers[1]
	require.InDelta(t, 350.00, *second.Price, 0.001)
	// No secondary price means the bottle price doubles as unit price.
	require.InDelta(t, 350.00, *second.UnitPrice, 0.001)

	require.NotNil(t, snap.MinPrice)
	require.InDelta(t, 350.00, *snap.MinPrice, 0.001)
}

func TestParseNonVintagePage(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<meta property="og:url" content="https://www.wine-searcher.com/find/krug-grande-cuvee/usa" />
</head><body><h1 data-name-id="5150">Krug Grande Cuvée</h1></body></html>`

	snap, offers, err := Parse(html)
	require.NoError(t, err)
	require.Equal(t, wine.NonVintage, snap.Vintage)
	require.Equal(t, "5150_1", snap.ID)
	require.Empty(t, offers)
	require.Zero(t, snap.OffersCount)
	require.Nil(t, snap.MinPrice)
}

func TestParseAutoExpandedResultsYieldNoOffers(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<meta property="og:url" content="https://www.wine-searcher.com/find/obscure/2012/usa" />
</head><body>
<h1 data-name-id="777">Obscure Estate</h1>
<div id="pjax-offers">
  <div class="auto-expand-card">We expanded your search</div>
  <div><span class="font-weight-bold">3 offers</span></div>
  <div class="offer-card__container">
    <div class="offer-card__price-section"><div class="price__detail_main">$10.00</div></div>
  </div>
</div>
</body></html>`

	snap, offers, err := Parse(html)
	require.NoError(t, err)
	require.Empty(t, offers)
	require.Zero(t, snap.OffersCount)
}

func TestParseUnrecognizablePage(t *testing.T) {
	t.Parallel()

	for name, html := range map[string]string{
		"no heading":          `<html><body><p>nothing here</p></body></html>`,
		"heading without id":  `<html><body><h1>Some Wine</h1></body></html>`,
		"id without name":     `<html><body><h1 data-name-id="42"></h1></body></html>`,
		"non-numeric name id": `<html><body><h1 data-name-id="abc">Some Wine</h1></body></html>`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Parse(html)
			require.ErrorIs(t, err, wine.ErrUnparseablePage)
		})
	}
}

func TestParseStyleWithoutSeparatorLeavesTypeUnset(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<h1 data-name-id="9">Plain Wine</h1>
<span class="prod-profile__style"><span class="font-light-bold">Rosé</span></span>
</body></html>`

	snap, _, err := Parse(html)
	require.NoError(t, err)
	require.Nil(t, snap.WineType)
	require.Nil(t, snap.WineStyle)
}
