package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/agenthands/kbguard/internal/core/model"
)

// SeedFile is the YAML layout of a curated abrogation list.
type SeedFile struct {
	Abrogations []model.Abrogation `yaml:"abrogations"`
}

type AbrogationWriter interface {
	UpsertAbrogation(ctx context.Context, a model.Abrogation) (bool, error)
}

type SeedResult struct {
	Inserted int
	Updated  int
}

// ParseSeed decodes and validates a seed file. All entries are checked
// before any is returned so a bad file writes nothing.
func ParseSeed(r io.Reader) ([]model.Abrogation, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	var errs []error
	for i, a := range f.Abrogations {
		if err := validateAbrogation(a); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%q): %w", i, a.AbrogatedReference, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return f.Abrogations, nil
}

func ParseSeedFile(path string) ([]model.Abrogation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	items, err := ParseSeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

func validateAbrogation(a model.Abrogation) error {
	if a.AbrogatedReference == "" {
		return errors.New("abrogated_reference is required")
	}
	if a.AbrogationDate.IsZero() {
		return errors.New("abrogation_date is required")
	}
	switch a.Scope {
	case model.ScopeTotal, model.ScopePartial, model.ScopeImplicit:
	default:
		return fmt.Errorf("unknown scope %q", a.Scope)
	}
	switch a.Confidence {
	case "", model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		return fmt.Errorf("unknown confidence %q", a.Confidence)
	}
	return nil
}

// Seed upserts every entry and stops at the first failure.
func Seed(ctx context.Context, w AbrogationWriter, items []model.Abrogation) (SeedResult, error) {
	var res SeedResult
	for _, a := range items {
		inserted, err := w.UpsertAbrogation(ctx, a)
		if err != nil {
			return res, err
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
