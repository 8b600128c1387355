package pantry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/prompt"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewItem(t *testing.T) {
	it := NewItem(domain.PantryItem{Name: "  Rice ", Quantity: "3 lbs", Confidence: 14}, testNow)
	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "Rice", it.Name)
	assert.Equal(t, testNow, it.DateAdded)
	assert.Equal(t, domain.MaxConfidence, it.Confidence)
	assert.Equal(t, domain.StatusInStock, it.Status)

	other := NewItem(domain.PantryItem{Name: "Rice"}, testNow)
	assert.NotEqual(t, it.ID, other.ID)
	assert.Equal(t, "1", other.Quantity)
	assert.Equal(t, domain.StatusLowStock, other.Status)

	kept := NewItem(domain.PantryItem{ID: "fixed", Name: "Beans", Confidence: -3}, testNow)
	assert.Equal(t, "fixed", kept.ID)
	assert.Zero(t, kept.Confidence)
}

func TestAdjustQuantity(t *testing.T) {
	items := []domain.PantryItem{
		{ID: "a", Name: "Rice", Quantity: "3 lbs"},
		{ID: "b", Name: "Milk", Quantity: "0.5 gallon"},
		{ID: "c", Name: "Eggs", Quantity: "dozen"},
	}

	cases := []struct {
		id    string
		delta int
		want  string
		state domain.PantryStatus
	}{
		{"a", 1, "4 lbs", domain.StatusInStock},
		{"a", -1, "2 lbs", domain.StatusInStock},
		{"a", -5, "0 lbs", domain.StatusOutOfStock},
		{"b", -1, "0 gallon", domain.StatusOutOfStock},
		{"b", 1, "1.5 gallon", domain.StatusInStock},
		{"c", 1, "2 dozen", domain.StatusInStock},
		{"c", -1, "0 dozen", domain.StatusOutOfStock},
	}
	for _, tc := range cases {
		out, err := AdjustQuantity(items, tc.id, tc.delta)
		require.NoError(t, err)
		idx := indexOf(out, tc.id)
		assert.Equal(t, tc.want, out[idx].Quantity, "%s %+d", tc.id, tc.delta)
		assert.Equal(t, tc.state, out[idx].Status, "%s %+d", tc.id, tc.delta)
	}
	assert.Equal(t, "3 lbs", items[0].Quantity)

	_, err := AdjustQuantity(items, "zzz", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemove(t *testing.T) {
	items := []domain.PantryItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out, err := Remove(items, "b")
	require.NoError(t, err)
	assert.Equal(t, []domain.PantryItem{{ID: "a"}, {ID: "c"}}, out)
	assert.Len(t, items, 3)

	_, err = Remove(out, "b")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestTriage(t *testing.T) {
	got := Triage([]domain.PantryItem{
		{Name: "a", Confidence: 10},
		{Name: "b", Confidence: 7},
		{Name: "c", Confidence: 6},
		{Name: "b", Confidence: 7},
	})
	require.Len(t, got.Accepted, 3)
	require.Len(t, got.NeedsReview, 1)
	assert.Equal(t, "c", got.NeedsReview[0].Name)
}

type stubVision struct {
	content string
	err     error
	img     llm.Image
}

func (s *stubVision) GenerateFromImage(_ context.Context, _ string, img llm.Image) (llm.ContentResponse, error) {
	s.img = img
	return llm.ContentResponse{Content: s.content}, s.err
}

func TestScanImage(t *testing.T) {
	prompts, err := prompt.NewBuilder(nil)
	require.NoError(t, err)
	img := llm.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}}

	t.Run("Triaged", func(t *testing.T) {
		vision := &stubVision{content: `{"items":[
			{"name":"Pasta","brand":"Barilla","quantity":"2 boxes","category":"Grains","confidence":9},
			{"name":"Mystery jar","confidence":0.4},
			{"quantity":"1"}
		]}`}
		s := NewScanner(vision, prompts, time.Second, zaptest.NewLogger(t))
		s.now = func() time.Time { return testNow }

		got, meta, err := s.ScanImage(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, "PantryImageAnalysis", meta.Operation)
		assert.Equal(t, img, vision.img)
		require.Len(t, got.Accepted, 1)
		assert.Equal(t, "Pasta", got.Accepted[0].Name)
		assert.Equal(t, testNow, got.Accepted[0].DateAdded)
		require.Len(t, got.NeedsReview, 1)
		assert.Equal(t, 4, got.NeedsReview[0].Confidence)
	})

	t.Run("Unreadable", func(t *testing.T) {
		s := NewScanner(&stubVision{content: "I see a fridge."}, prompts, time.Second, nil)
		got, _, err := s.ScanImage(context.Background(), img)
		require.NoError(t, err)
		assert.Empty(t, got.Accepted)
		assert.Empty(t, got.NeedsReview)
	})

	t.Run("TransportFailure", func(t *testing.T) {
		s := NewScanner(&stubVision{err: errors.New("quota")}, prompts, time.Second, nil)
		_, meta, err := s.ScanImage(context.Background(), img)
		assert.ErrorIs(t, err, llm.ErrTransport)
		assert.True(t, meta.Failed)
	})

	t.Run("NoVisionBackend", func(t *testing.T) {
		s := NewScanner(nil, prompts, time.Second, nil)
		_, _, err := s.ScanImage(context.Background(), img)
		assert.ErrorIs(t, err, ErrVisionUnavailable)
	})
}

func TestBarcodeLookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/product/111.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":1,"product":{"product_name":"Peanut Butter","brands":"Jif, Smucker","categories":"Spreads, Nut butters","quantity":"16 oz"}}`))
	})
	mux.HandleFunc("/api/v2/product/222.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	})
	mux.HandleFunc("/product/222", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:title" content="ignored"></head><body>
			<h1 itemprop="name">Canned Tomatoes</h1>
			<span id="field_brands_value"><a>Hunt's</a></span>
			<span id="field_categories_value"><a>Canned foods</a>, <a>Tomatoes</a></span>
			<span id="field_quantity_value">14.5 oz</span>
		</body></html>`))
	})
	mux.HandleFunc("/api/v2/product/333.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	b := NewBarcodeLookup(ts.URL+"/", time.Second, zaptest.NewLogger(t))
	b.now = func() time.Time { return testNow }
	ctx := context.Background()

	t.Run("JSON", func(t *testing.T) {
		it := b.Lookup(ctx, "111")
		assert.Equal(t, "Peanut Butter", it.Name)
		assert.Equal(t, "Jif", it.Brand)
		assert.Equal(t, "Nut butters", it.Category)
		assert.Equal(t, "16 oz", it.Quantity)
		assert.Equal(t, domain.MaxConfidence, it.Confidence)
		assert.False(t, it.NeedsVerification())
		assert.NotEmpty(t, it.ID)
	})

	t.Run("PageFallback", func(t *testing.T) {
		it := b.Lookup(ctx, "222")
		assert.Equal(t, "Canned Tomatoes", it.Name)
		assert.Equal(t, "Hunt's", it.Brand)
		assert.Equal(t, "Tomatoes", it.Category)
		assert.Equal(t, "14.5 oz", it.Quantity)
	})

	t.Run("Placeholder", func(t *testing.T) {
		it := b.Lookup(ctx, "333")
		assert.Equal(t, "Unknown product (333)", it.Name)
		assert.Equal(t, "Other", it.Category)
		assert.Equal(t, "1", it.Quantity)
		assert.Equal(t, domain.MaxConfidence, it.Confidence)
		assert.Equal(t, testNow, it.DateAdded)
	})
}
