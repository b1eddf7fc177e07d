package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"

	"changewatch/triggerd/internal/config"
	"changewatch/triggerd/internal/model"
	"changewatch/triggerd/internal/producer"
	"changewatch/triggerd/internal/repository"
)

func TestIndicatorSourceCheck(t *testing.T) {
	d, store, rec := newTestDetector(t)
	readings := []model.Indicator{model.OutOfStock, model.InStock}
	i := 0
	src := NewIndicatorSource("target_A-1", "target/A-1", "PS5 back in stock on Target",
		func(context.Context) (model.Indicator, error) {
			v := readings[i]
			i++
			return v, nil
		}, d)

	ctx := context.Background()
	for range readings {
		if err := src.Check(ctx); err != nil {
			t.Fatalf("Check failed: %v", err)
		}
	}
	if got := rec.Messages(); len(got) != 1 || got[0] != "PS5 back in stock on Target" {
		t.Errorf("messages = %q", got)
	}
	if v, _, _ := store.Get(ctx, "target_A-1"); v != 1 {
		t.Errorf("stored = %v, want 1", v)
	}
	if src.Key() != "target_A-1" || src.Name() != "target/A-1" {
		t.Errorf("Key/Name = %q/%q", src.Key(), src.Name())
	}
}

func TestSourceFetchErrorLeavesState(t *testing.T) {
	d, store, rec := newTestDetector(t)
	fetchErr := &producer.FetchError{Source: "reddit", URL: "http://x", Err: errors.New("dial tcp: refused")}
	src := NewFeedSource("reddit_u", "reddit/u", func(context.Context) ([]model.Sample, error) {
		return nil, fetchErr
	}, d)

	err := src.Check(context.Background())
	var fe *producer.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *producer.FetchError", err)
	}
	if _, ok, _ := store.Get(context.Background(), "reddit_u"); ok {
		t.Error("fetch failure must not create state")
	}
	if len(rec.Messages()) != 0 {
		t.Error("fetch failure must not notify")
	}
}

func TestBuildSources(t *testing.T) {
	d := NewChangeDetector(repository.NewMemoryStateStore(), &recorder{}, zaptest.NewLogger(t))
	cfg := config.SourcesConfig{
		Reddit: []config.RedditSource{{User: "Fast-Wolverine"}},
		Amazon: []config.AmazonSource{{Name: "PS5", ASIN: "B08FC5L3RG"}},
		Target: []config.TargetSource{{Name: "PS5", ID: "A-81114595"}},
	}

	sources := BuildSources(cfg, producer.NewClient(), d)
	want := []string{"reddit_Fast-Wolverine", "amazon_B08FC5L3RG", "target_A-81114595"}
	if len(sources) != len(want) {
		t.Fatalf("got %d sources, want %d", len(sources), len(want))
	}
	for i, key := range want {
		if sources[i].Key() != key {
			t.Errorf("sources[%d].Key() = %q, want %q", i, sources[i].Key(), key)
		}
	}
	if sources[1].Name() != "amazon.com/B08FC5L3RG" {
		t.Errorf("amazon default domain not applied: %q", sources[1].Name())
	}
	if msg := sources[1].(*indicatorSource).message; msg != "PS5 (B08FC5L3RG) back in stock on Amazon.com" {
		t.Errorf("amazon message = %q", msg)
	}
	if msg := sources[2].(*indicatorSource).message; msg != "PS5 back in stock on Target" {
		t.Errorf("target message = %q", msg)
	}
}

func TestFeedSourceEndToEnd(t *testing.T) {
	var body atomic.Value
	body.Store(`{"data":{"children":[{"data":{"author":"Fast-Wolverine","body":"first","created_utc":100}}]}}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body.Load().(string)))
	}))
	defer server.Close()

	d, _, rec := newTestDetector(t)
	sources := BuildSources(config.SourcesConfig{
		Reddit: []config.RedditSource{{User: "Fast-Wolverine"}},
	}, producer.NewClient(producer.WithRedditBaseURL(server.URL)), d)

	ctx := context.Background()
	if err := sources[0].Check(ctx); err != nil {
		t.Fatalf("baseline Check failed: %v", err)
	}

	body.Store(`{"data":{"children":[` +
		`{"data":{"author":"Fast-Wolverine","body":"third","created_utc":102}},` +
		`{"data":{"author":"Fast-Wolverine","body":"second","created_utc":101}},` +
		`{"data":{"author":"Fast-Wolverine","body":"first","created_utc":100}}]}}`)
	if err := sources[0].Check(ctx); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	got := rec.Messages()
	want := []string{"Fast-Wolverine: second", "Fast-Wolverine: third"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("messages = %q, want %q", got, want)
	}
}
