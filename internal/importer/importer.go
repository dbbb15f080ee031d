// Package importer runs the periodic pet-listing import cycle. Each cycle
// provisions the synthetic system account and its shelter (idempotently),
// fetches listings from the configured source, and inserts the ones not seen
// before. Parsing external sites is the source's problem; the importer only
// orchestrates.
package importer

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/smartshelter/api/internal/dbx"
	"github.com/smartshelter/api/internal/model"
	"github.com/smartshelter/api/internal/queue"
	"github.com/smartshelter/api/internal/repository"
	"github.com/smartshelter/api/internal/service"
)

// Listing is one pet offer as reported by a Source. ExternalURL must be
// stable across fetches; it is the dedupe key.
type Listing struct {
	Name        string
	Species     string
	Breed       string
	Description string
	ImageURL    string
	Price       string
	ExternalURL string
}

// Source produces listings for one import cycle.
type Source interface {
	Fetch(ctx context.Context) ([]Listing, error)
}

// Importer owns the import loop.
type Importer struct {
	db       *sql.DB
	accounts *service.AccountService
	source   Source
	every    time.Duration
}

func New(db *sql.DB, accounts *service.AccountService, source Source, every time.Duration) *Importer {
	return &Importer{db: db, accounts: accounts, source: source, every: every}
}

// Run executes one cycle immediately, then one per tick until ctx is
// cancelled. Cycle errors are logged, never fatal; the next tick retries.
func (i *Importer) Run(ctx context.Context) {
	if err := i.cycle(ctx); err != nil {
		log.Printf("importer: cycle failed: %v", err)
	}
	t := time.NewTicker(i.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := i.cycle(ctx); err != nil {
				log.Printf("importer: cycle failed: %v", err)
			}
		}
	}
}

func (i *Importer) cycle(ctx context.Context) error {
	owner, err := i.accounts.EnsureSystemAccount(ctx)
	if err != nil {
		return err
	}
	shelter, err := i.accounts.EnsureSystemShelter(ctx, owner.ID)
	if err != nil {
		return err
	}

	listings, err := i.source.Fetch(ctx)
	if err != nil {
		return err
	}

	imported, skipped := 0, 0
	for _, l := range listings {
		if l.ExternalURL == "" {
			skipped++
			continue
		}
		switch err := i.insert(ctx, shelter.ID, l); {
		case err == nil:
			imported++
		case errors.Is(err, repository.ErrPetExists):
			// Seen in a previous run, or a concurrent cycle got it first.
			skipped++
		default:
			log.Printf("importer: insert %s failed: %v", l.ExternalURL, err)
			skipped++
		}
	}

	log.Printf("importer: cycle done, imported=%d skipped=%d", imported, skipped)
	if imported > 0 {
		_ = queue.PublishPetsImported(ctx, queue.PetsImportedEvent{
			ShelterID:  shelter.ID,
			Imported:   imported,
			Skipped:    skipped,
			FinishedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return nil
}

func (i *Importer) insert(ctx context.Context, shelterID string, l Listing) error {
	return dbx.WithTx(ctx, i.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		pets := repository.NewPetRepo(tx)
		if exists, err := pets.ExistsByExternalURL(ctx, l.ExternalURL); err != nil {
			return err
		} else if exists {
			return repository.ErrPetExists
		}
		p := model.Pet{
			ID:          uuid.NewString(),
			ExternalURL: l.ExternalURL,
			ShelterID:   shelterID,
		}
		p.Name = optional(l.Name)
		p.Species = optional(l.Species)
		p.Breed = optional(l.Breed)
		p.Description = optional(l.Description)
		p.ImageURL = optional(l.ImageURL)
		p.Price = optional(l.Price)
		return pets.Create(ctx, &p)
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StaticSource serves a fixed set of listings. Useful in development and as
// the default when no scraper is configured.
type StaticSource []Listing

func (s StaticSource) Fetch(context.Context) ([]Listing, error) { return s, nil }
