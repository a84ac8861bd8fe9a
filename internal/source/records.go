package source

import (
	"fmt"
	"time"
)

// Kind identifies the shape of a source file.
type Kind string

const (
	KindCatalog  Kind = "catalog"
	KindActivity Kind = "activity"
)

// PageNextSong is the only activity page that represents a song play.
const PageNextSong = "NextSong"

func (k Kind) Valid() bool {
	return k == KindCatalog || k == KindActivity
}

func ParseKind(value string) (Kind, error) {
	kind := Kind(value)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown source kind %q", value)
	}
	return kind, nil
}

// CatalogRecord is one song and its artist as found in a song_data file.
type CatalogRecord struct {
	SongID          string
	Title           string
	ArtistID        string
	ArtistName      string
	ArtistLocation  *string
	ArtistLatitude  *float64
	ArtistLongitude *float64
	Year            *int64
	Duration        *float64
	NumSongs        *int64
}

// ActivityRecord is one event from a log_data file.
type ActivityRecord struct {
	Page          string
	Timestamp     int64
	UserID        *int64
	FirstName     *string
	LastName      *string
	Gender        *string
	Level         *string
	SessionID     *int64
	Song          *string
	Artist        *string
	Length        *float64
	Location      *string
	UserAgent     *string
	Auth          *string
	ItemInSession *int64
	Method        *string
	Status        *int64
	Registration  *float64
}

func (r ActivityRecord) IsSongPlay() bool {
	return r.Page == PageNextSong
}

// StartTime converts the epoch millisecond timestamp to a UTC instant.
func (r ActivityRecord) StartTime() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}
