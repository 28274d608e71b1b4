package config

import (
	"fmt"
	"time"

	"reviews-backend/internal/components/chrono"
	"reviews-backend/internal/components/random"
	"reviews-backend/internal/components/telemetry"
	"reviews-backend/internal/reviews"
	"reviews-backend/internal/scrapers/livesession"
	"reviews-backend/internal/scrapers/reviewpage"
)

func (c Config) Clock() (chrono.TimeAPI, error) {
	clock, err := chrono.NewStandardImpl(c.Temporal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("temporal.timezone: %w", err)
	}
	return clock, nil
}

func (c Config) Random() random.API {
	if c.Temporal.Seed != 0 {
		return random.NewSeededImpl(c.Temporal.Seed)
	}
	return random.NewStandardImpl()
}

func (c Config) Normalizer(clock chrono.TimeAPI, rand random.API, tel telemetry.API) (reviews.Normalizer, error) {
	normalizer := reviews.NewNormalizer(clock, rand, tel)

	policy, err := reviews.ParseDatePolicy(c.Temporal.Policy)
	if err != nil {
		return reviews.Normalizer{}, fmt.Errorf("temporal.policy: %w", err)
	}
	normalizer.Policy = policy

	if c.Temporal.Reference != "" {
		reference, err := time.Parse(time.DateOnly, c.Temporal.Reference)
		if err != nil {
			return reviews.Normalizer{}, fmt.Errorf("temporal.reference: %w", err)
		}
		normalizer.Reference = reference
	}

	if c.Temporal.SynthMin > c.Temporal.SynthMax {
		return reviews.Normalizer{}, fmt.Errorf(
			"temporal.synth_min (%d) is larger than temporal.synth_max (%d)",
			c.Temporal.SynthMin, c.Temporal.SynthMax,
		)
	}
	normalizer.SynthMin = c.Temporal.SynthMin
	normalizer.SynthMax = c.Temporal.SynthMax
	return normalizer, nil
}

func (c Config) Extractor(normalizer reviews.Normalizer, tel telemetry.API) (reviews.Extractor, error) {
	extractor := reviews.NewExtractor(normalizer, tel)
	extractor.Container = c.Source.Container
	extractor.Fragment = c.Source.Fragment

	policy, err := reviews.ParseRatingPolicy(c.Rating.Policy)
	if err != nil {
		return reviews.Extractor{}, fmt.Errorf("rating.policy: %w", err)
	}
	extractor.Rating = reviews.RatingExtractor{
		Marker:         c.Rating.Marker,
		OutlineSuffix:  c.Rating.OutlineSuffix,
		Policy:         policy,
		NeutralDefault: c.Rating.NeutralDefault,
	}
	return extractor, nil
}

// Pipeline builds the extractor with a clock and randomness derived from the
// temporal section.
func (c Config) Pipeline(tel telemetry.API) (reviews.Extractor, error) {
	clock, err := c.Clock()
	if err != nil {
		return reviews.Extractor{}, err
	}
	normalizer, err := c.Normalizer(clock, c.Random(), tel)
	if err != nil {
		return reviews.Extractor{}, err
	}
	return c.Extractor(normalizer, tel)
}

func (c Config) PageOptions() reviewpage.Options {
	opts := reviewpage.DefaultOptions()
	if c.Source.UserAgent != "" {
		opts.UserAgent = c.Source.UserAgent
	}
	opts.Timeout = time.Duration(c.Source.TimeoutSeconds) * time.Second
	opts.RequestsPerSecond = c.Source.RequestsPerSecond
	if c.Source.CloudflareBypass != nil {
		opts.CloudflareBypass = *c.Source.CloudflareBypass
	}
	return opts
}

func (c Config) LiveOptions() livesession.Options {
	opts := livesession.DefaultOptions()
	opts.URL = c.Live.Url
	opts.CallbackBase = c.Live.CallbackBase
	opts.Timeout = time.Duration(c.Live.TimeoutSeconds) * time.Second
	if c.Live.MinRating != nil {
		opts.MinRating = *c.Live.MinRating
	}
	opts.MaxScrolls = c.Live.MaxScrolls
	opts.ScrollDelay = time.Duration(c.Live.ScrollDelayMs) * time.Millisecond
	opts.Selectors = c.Live.Selectors
	return opts
}

func (c Config) Launcher() livesession.PlaywrightLauncher {
	return livesession.PlaywrightLauncher{
		Headless:       c.Live.Headless,
		ExecutablePath: c.Live.ExecutablePath,
		Install:        c.Live.Install,
	}
}
