package pantry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"budget-meal-planner/internal/domain"
)

const placeholderCategory = "Other"

// BarcodeLookup resolves product codes against an Open Food Facts compatible
// service. Every lookup yields a usable item at maximum confidence.
type BarcodeLookup struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

func NewBarcodeLookup(baseURL string, timeout time.Duration, logger *zap.Logger) *BarcodeLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BarcodeLookup{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		Name       string `json:"product_name"`
		Brands     string `json:"brands"`
		Categories string `json:"categories"`
		Quantity   string `json:"quantity"`
	} `json:"product"`
}

type product struct {
	Name     string
	Brand    string
	Category string
	Quantity string
}

// Lookup tries the JSON API, then the product page, then falls back to a
// generic placeholder.
func (b *BarcodeLookup) Lookup(ctx context.Context, code string) domain.PantryItem {
	code = strings.TrimSpace(code)
	p, err := b.fetchJSON(ctx, code)
	if err != nil {
		b.logger.Debug("barcode api lookup missed", zap.String("code", code), zap.Error(err))
		p, err = b.fetchPage(ctx, code)
	}
	if err != nil {
		b.logger.Info("barcode not found, using placeholder", zap.String("code", code), zap.Error(err))
		p = product{Name: fmt.Sprintf("Unknown product (%s)", code), Category: placeholderCategory}
	}

	if p.Category == "" {
		p.Category = placeholderCategory
	}
	return NewItem(domain.PantryItem{
		Name:       p.Name,
		Brand:      p.Brand,
		Quantity:   p.Quantity,
		Category:   p.Category,
		Confidence: domain.MaxConfidence,
	}, b.now())
}

func (b *BarcodeLookup) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "budget-meal-planner/1.0")
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (b *BarcodeLookup) fetchJSON(ctx context.Context, code string) (product, error) {
	resp, err := b.get(ctx, fmt.Sprintf("%s/api/v2/product/%s.json", b.baseURL, url.PathEscape(code)))
	if err != nil {
		return product{}, err
	}
	defer resp.Body.Close()

	var body offResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return product{}, fmt.Errorf("failed to decode product: %w", err)
	}
	name := strings.TrimSpace(body.Product.Name)
	if body.Status != 1 || name == "" {
		return product{}, fmt.Errorf("product %s not found", code)
	}
	return product{
		Name:     name,
		Brand:    firstOf(body.Product.Brands),
		Category: lastOf(body.Product.Categories),
		Quantity: strings.TrimSpace(body.Product.Quantity),
	}, nil
}

func (b *BarcodeLookup) fetchPage(ctx context.Context, code string) (product, error) {
	resp, err := b.get(ctx, fmt.Sprintf("%s/product/%s", b.baseURL, url.PathEscape(code)))
	if err != nil {
		return product{}, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return product{}, err
	}

	name := strings.TrimSpace(doc.Find(`h1[itemprop="name"]`).First().Text())
	if name == "" {
		name, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		name = strings.TrimSpace(name)
	}
	if name == "" {
		return product{}, fmt.Errorf("product page for %s has no name", code)
	}
	return product{
		Name:     name,
		Brand:    strings.TrimSpace(doc.Find("#field_brands_value a").First().Text()),
		Category: strings.TrimSpace(doc.Find("#field_categories_value a").Last().Text()),
		Quantity: strings.TrimSpace(doc.Find("#field_quantity_value").First().Text()),
	}, nil
}

func firstOf(list string) string {
	parts := strings.Split(list, ",")
	return strings.TrimSpace(parts[0])
}

func lastOf(list string) string {
	parts := strings.Split(list, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
