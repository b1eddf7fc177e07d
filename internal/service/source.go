package service

import (
	"context"
	"fmt"

	"changewatch/triggerd/internal/config"
	"changewatch/triggerd/internal/model"
	"changewatch/triggerd/internal/producer"
)

// Source is one watched entity. Check fetches its current state and hands it
// to the change detector.
type Source interface {
	Key() string
	Name() string
	Check(ctx context.Context) error
}

// IndicatorFetcher produces the current availability reading of a source.
type IndicatorFetcher func(ctx context.Context) (model.Indicator, error)

// FeedFetcher produces the current samples of a source, newest first.
type FeedFetcher func(ctx context.Context) ([]model.Sample, error)

type indicatorSource struct {
	key      string
	name     string
	message  string
	fetch    IndicatorFetcher
	detector ChangeDetector
}

// NewIndicatorSource builds a binary source; message is sent when the reading
// goes from 0 to 1.
func NewIndicatorSource(key, name, message string, fetch IndicatorFetcher, detector ChangeDetector) Source {
	return &indicatorSource{key: key, name: name, message: message, fetch: fetch, detector: detector}
}

func (s *indicatorSource) Key() string  { return s.key }
func (s *indicatorSource) Name() string { return s.name }

func (s *indicatorSource) Check(ctx context.Context) error {
	value, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	_, err = s.detector.ObserveIndicator(ctx, s.key, value, s.message)
	return err
}

type feedSource struct {
	key      string
	name     string
	fetch    FeedFetcher
	detector ChangeDetector
}

// NewFeedSource builds an ordered-event source.
func NewFeedSource(key, name string, fetch FeedFetcher, detector ChangeDetector) Source {
	return &feedSource{key: key, name: name, fetch: fetch, detector: detector}
}

func (s *feedSource) Key() string  { return s.key }
func (s *feedSource) Name() string { return s.name }

func (s *feedSource) Check(ctx context.Context) error {
	samples, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	_, err = s.detector.ObserveFeed(ctx, s.key, samples)
	return err
}

// BuildSources turns the configured sources into checks backed by client,
// in config order: reddit, amazon, target.
func BuildSources(cfg config.SourcesConfig, client *producer.Client, detector ChangeDetector) []Source {
	var sources []Source

	for _, rc := range cfg.Reddit {
		user := rc.User
		sources = append(sources, NewFeedSource(
			"reddit_"+user,
			"reddit/"+user,
			func(ctx context.Context) ([]model.Sample, error) {
				return client.RedditComments(ctx, user)
			},
			detector,
		))
	}

	for _, ac := range cfg.Amazon {
		domain := ac.Domain
		if domain == "" {
			domain = "com"
		}
		url := producer.AmazonURL(domain, ac.ASIN)
		sources = append(sources, NewIndicatorSource(
			"amazon_"+ac.ASIN,
			fmt.Sprintf("amazon.%s/%s", domain, ac.ASIN),
			fmt.Sprintf("%s (%s) back in stock on Amazon.%s", ac.Name, ac.ASIN, domain),
			func(ctx context.Context) (model.Indicator, error) {
				return client.PageIndicator(ctx, "amazon", url, producer.AmazonMarker)
			},
			detector,
		))
	}

	for _, tc := range cfg.Target {
		url := producer.TargetURL(tc.ID)
		sources = append(sources, NewIndicatorSource(
			"target_"+tc.ID,
			"target/"+tc.ID,
			fmt.Sprintf("%s back in stock on Target", tc.Name),
			func(ctx context.Context) (model.Indicator, error) {
				return client.PageIndicator(ctx, "target", url, producer.TargetMarker)
			},
			detector,
		))
	}

	return sources
}

var (
	_ Source = (*indicatorSource)(nil)
	_ Source = (*feedSource)(nil)
)
