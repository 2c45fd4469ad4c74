// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/boroughs/config"
	"github.com/poiesic/boroughs/core"
	"github.com/poiesic/boroughs/retrieval"
	"github.com/poiesic/boroughs/store"
)

// Preparer turns a neighborhood key into the retriever serving it.
// It returns core.ErrSourceNotFound when the neighborhood has no local
// source material. A retriever that implements io.Closer is closed once the
// neighborhood is done.
type Preparer interface {
	Prepare(ctx context.Context, key core.NeighborhoodKey) (retrieval.Retriever, error)
}

// PreparerFunc adapts a function to a Preparer.
type PreparerFunc func(ctx context.Context, key core.NeighborhoodKey) (retrieval.Retriever, error)

func (f PreparerFunc) Prepare(ctx context.Context, key core.NeighborhoodKey) (retrieval.Retriever, error) {
	return f(ctx, key)
}

// Refiner turns a category's snippets into its result.
type Refiner interface {
	Refine(ctx context.Context, key core.NeighborhoodKey, category core.Category, snippets []core.Snippet) (core.CategoryResult, error)
}

// Driver runs neighborhoods through the pipeline sequentially.
type Driver struct {
	table    *config.Table
	preparer Preparer
	refiner  Refiner
	store    store.RecordStore
	runID    string
	delay    time.Duration
	logger   *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithRunID stamps records with id instead of a generated one.
func WithRunID(id string) Option {
	return func(d *Driver) {
		if id != "" {
			d.runID = id
		}
	}
}

// WithNeighborhoodDelay sets the pause after each persisted neighborhood
// before the next one starts. Skipped neighborhoods do not pause.
func WithNeighborhoodDelay(delay time.Duration) Option {
	return func(d *Driver) {
		d.delay = delay
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDriver creates a driver over the category table.
func NewDriver(table *config.Table, preparer Preparer, refiner Refiner, records store.RecordStore, opts ...Option) *Driver {
	d := &Driver{
		table:    table,
		preparer: preparer,
		refiner:  refiner,
		store:    records,
		runID:    uuid.NewString(),
		logger:   slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunID returns the identifier stamped on records written by this driver.
func (d *Driver) RunID() string {
	return d.runID
}

// Run processes keys in order. It stops at the first neighborhood that
// fails; the returned report holds every outcome up to and including it.
func (d *Driver) Run(ctx context.Context, keys []core.NeighborhoodKey) (*Report, error) {
	report := &Report{RunID: d.runID}
	for i, key := range keys {
		outcome, err := d.Process(ctx, key)
		report.Outcomes = append(report.Outcomes, outcome)
		if err != nil {
			return report, err
		}
		if outcome.State == StatePersisted && i < len(keys)-1 {
			if err := d.pause(ctx); err != nil {
				return report, err
			}
		}
	}

	d.logger.Info("run complete",
		"run_id", d.runID,
		"persisted", report.Count(StatePersisted),
		"skipped", report.Count(StateSkipped))
	return report, nil
}

// Process runs a single neighborhood to a terminal state.
// A missing source yields a SKIPPED outcome and a nil error.
func (d *Driver) Process(ctx context.Context, key core.NeighborhoodKey) (*Outcome, error) {
	outcome := &Outcome{Key: key, RunID: d.runID}
	logger := d.logger.With("neighborhood", key.Neighborhood, "borough", key.Borough)
	d.enter(logger, outcome, StatePending, "")

	if err := core.ValidateKey(key); err != nil {
		return d.fail(logger, outcome, err)
	}

	retriever, err := d.preparer.Prepare(ctx, key)
	if errors.Is(err, core.ErrSourceNotFound) {
		outcome.Reason = err.Error()
		d.enter(logger, outcome, StateSkipped, "")
		logger.Warn("skipping neighborhood, source material not found", "error", err)
		return outcome, nil
	}
	if err != nil {
		return d.fail(logger, outcome, fmt.Errorf("failed to prepare %s: %w", key, err))
	}
	defer func() {
		if c, ok := retriever.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close retriever", "error", err)
			}
		}
	}()

	acc := core.NewAccumulator(key, d.runID)
	passes := passesOf(retriever)
	for _, category := range d.table.Names() {
		served := false
		for _, pass := range passes {
			if s, ok := pass.(retrieval.Supporter); ok && !s.Supports(category) {
				continue
			}
			served = true
			if err := d.category(ctx, logger, outcome, acc, pass, category); err != nil {
				return d.fail(logger, outcome, err)
			}
		}
		if !served {
			logger.Warn("no retriever serves category, leaving it out of the record", "category", category)
		}
	}

	record := acc.Record()
	if err := d.store.SaveRecord(ctx, record); err != nil {
		return d.fail(logger, outcome, fmt.Errorf("failed to save %s: %w", key, err))
	}
	outcome.Record = record
	d.enter(logger, outcome, StatePersisted, "")
	return outcome, nil
}

func (d *Driver) category(ctx context.Context, logger *slog.Logger, outcome *Outcome, acc *core.Accumulator, pass retrieval.Retriever, category core.Category) error {
	d.enter(logger, outcome, StateRetrieving, category)
	snippets, err := pass.Retrieve(ctx, outcome.Key, category)
	if err != nil {
		return err
	}

	d.enter(logger, outcome, StateRefining, category)
	result, err := d.refiner.Refine(ctx, outcome.Key, category, snippets)
	if err != nil {
		return fmt.Errorf("failed to refine %s: %w", category, err)
	}

	acc.Merge(category, result)
	d.enter(logger, outcome, StateMerged, category)
	return nil
}

func (d *Driver) enter(logger *slog.Logger, outcome *Outcome, state State, category core.Category) {
	outcome.enter(state, category)
	if category != "" {
		logger.Debug("transition", "state", state, "category", category)
		return
	}
	logger.Info("transition", "state", state, "run_id", d.runID)
}

func (d *Driver) fail(logger *slog.Logger, outcome *Outcome, err error) (*Outcome, error) {
	outcome.Reason = err.Error()
	outcome.enter(StateFailed, "")
	logger.Error("neighborhood failed", "error", err)
	return outcome, err
}

func (d *Driver) pause(ctx context.Context) error {
	if d.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(d.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
