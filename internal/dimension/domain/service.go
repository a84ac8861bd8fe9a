package domain

import (
	"context"
	"iter"

	"github.com/smallbiznis/sparkify/internal/source"
)

// Extractor turns parsed source rows into dimension candidates.
type Extractor interface {
	CollectCatalog(ctx context.Context, rows iter.Seq2[source.CatalogRecord, error]) ([]source.CatalogRecord, int, error)
	CollectActivity(ctx context.Context, rows iter.Seq2[source.ActivityRecord, error]) ([]source.ActivityRecord, int, error)

	ExtractSongArtist(rows []source.CatalogRecord) (Song, Artist, bool)
	ExtractTimeBuckets(rows []source.ActivityRecord) []TimeBucket
	ExtractUsers(rows []source.ActivityRecord) []User
}
