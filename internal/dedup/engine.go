// Package dedup performs identity-keyed, idempotent create-or-update of
// normalized postings against the catalog.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-ingest/internal/classify"
	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/types"
)

// Store is the catalog surface the engine needs.
type Store interface {
	LookupIdentity(ctx context.Context, platform types.Platform, externalID string) (*db.Existing, error)
	UpsertPosting(ctx context.Context, in db.UpsertInput) (*db.UpsertResult, error)
}

// Classifier scores a posting.
type Classifier interface {
	Classify(in classify.Input) types.Classification
}

// Outcome reports what an upsert did, or would do in a dry run.
type Outcome struct {
	Created        bool
	Updated        bool
	Reclassified   bool
	PostingID      uuid.UUID // uuid.Nil for a dry-run create
	Classification types.Classification
}

// Engine upserts postings by identity key.
type Engine struct {
	store      Store
	classifier Classifier
	now        func() time.Time
}

// New creates an engine.
func New(store Store, classifier Classifier) *Engine {
	return &Engine{store: store, classifier: classifier, now: time.Now}
}

// ContentChanged reports whether a posting's title or description materially
// changed, as captured by the content hash.
func ContentChanged(storedHash, newHash string) bool {
	return storedHash != newHash
}

// Upsert creates the posting if its identity is unknown and updates it
// otherwise. Classification is stored on create and on content change. With
// dryRun set nothing is written and the outcome describes the would-be write.
func (e *Engine) Upsert(ctx context.Context, p *types.NormalizedPosting, dryRun bool) (*Outcome, error) {
	existing, err := e.store.LookupIdentity(ctx, p.Platform, p.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s/%s: %w", p.Platform, p.ExternalID, err)
	}

	reclassify := existing == nil || ContentChanged(existing.ContentHash, p.ContentHash)
	classification := e.classifier.Classify(classify.InputFrom(p))

	if dryRun {
		out := &Outcome{
			Created:        existing == nil,
			Updated:        existing != nil,
			Reclassified:   reclassify,
			Classification: classification,
		}
		if existing != nil {
			out.PostingID = existing.ID
		}
		return out, nil
	}

	res, err := e.store.UpsertPosting(ctx, db.UpsertInput{
		Posting:        p,
		Classification: &classification,
		Reclassify:     reclassify,
		SeenAt:         e.now().UTC(),
	})
	if err != nil {
		if db.IsUniqueViolation(err, db.IdentityConstraint) {
			return nil, &IdentityConflictError{Platform: p.Platform, ExternalID: p.ExternalID, Cause: err}
		}
		return nil, err
	}

	// A concurrent run may have created the row between lookup and write; the
	// statement then updated it, which the result reports.
	return &Outcome{
		Created:        res.Inserted,
		Updated:        !res.Inserted,
		Reclassified:   res.Inserted || reclassify,
		PostingID:      res.ID,
		Classification: classification,
	}, nil
}
