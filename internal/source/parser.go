package source

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"os"
)

type row struct {
	path   string
	line   int
	fields map[string]any
}

// ReadCatalog yields the records of a song_data file. Every range over the
// returned sequence reopens the file.
func ReadCatalog(path string) iter.Seq2[CatalogRecord, error] {
	return read(path, toCatalog)
}

// ReadActivity yields the events of a log_data file.
func ReadActivity(path string) iter.Seq2[ActivityRecord, error] {
	return read(path, toActivity)
}

// read decodes one JSON value at a time, so both JSON-lines files and files
// holding a single object are accepted. A *FileParseError ends the sequence,
// a *FieldMissingError only concerns the current row.
func read[T any](path string, convert func(row) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		f, err := os.Open(path)
		if err != nil {
			yield(zero, &FileParseError{Path: path, Err: err})
			return
		}
		defer f.Close()

		dec := json.NewDecoder(bufio.NewReader(f))
		dec.UseNumber()

		for line := 1; ; line++ {
			var fields map[string]any
			if err := dec.Decode(&fields); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(zero, &FileParseError{Path: path, Err: err})
				return
			}

			record, err := convert(row{path: path, line: line, fields: fields})
			if !yield(record, err) {
				return
			}
		}
	}
}

func (r row) missing(field string) error {
	return &FieldMissingError{Path: r.path, Line: r.line, Field: field}
}

func (r row) invalid(field string, err error) error {
	return &FieldMissingError{Path: r.path, Line: r.line, Field: field, Err: err}
}

func (r row) requiredString(field string) (string, error) {
	value := ToString(r.fields[field])
	if value == nil {
		return "", r.missing(field)
	}
	return *value, nil
}

func (r row) optionalInt(field string) (*int64, error) {
	value, err := ToInt64(r.fields[field])
	if err != nil {
		return nil, r.invalid(field, err)
	}
	return value, nil
}

func (r row) optionalFloat(field string) (*float64, error) {
	value, err := ToFloat64(r.fields[field])
	if err != nil {
		return nil, r.invalid(field, err)
	}
	return value, nil
}

func toCatalog(r row) (CatalogRecord, error) {
	var (
		rec CatalogRecord
		err error
	)

	if rec.SongID, err = r.requiredString("song_id"); err != nil {
		return CatalogRecord{}, err
	}
	if rec.Title, err = r.requiredString("title"); err != nil {
		return CatalogRecord{}, err
	}
	if rec.ArtistID, err = r.requiredString("artist_id"); err != nil {
		return CatalogRecord{}, err
	}
	if rec.ArtistName, err = r.requiredString("artist_name"); err != nil {
		return CatalogRecord{}, err
	}

	rec.ArtistLocation = ToString(r.fields["artist_location"])
	if rec.ArtistLatitude, err = r.optionalFloat("artist_latitude"); err != nil {
		return CatalogRecord{}, err
	}
	if rec.ArtistLongitude, err = r.optionalFloat("artist_longitude"); err != nil {
		return CatalogRecord{}, err
	}
	if rec.Year, err = r.optionalInt("year"); err != nil {
		return CatalogRecord{}, err
	}
	if rec.Duration, err = r.optionalFloat("duration"); err != nil {
		return CatalogRecord{}, err
	}
	if rec.NumSongs, err = r.optionalInt("num_songs"); err != nil {
		return CatalogRecord{}, err
	}
	return rec, nil
}

func toActivity(r row) (ActivityRecord, error) {
	var (
		rec ActivityRecord
		err error
	)

	if rec.Page, err = r.requiredString("page"); err != nil {
		return ActivityRecord{}, err
	}
	ts, err := r.optionalInt("ts")
	if err != nil {
		return ActivityRecord{}, err
	}
	if ts == nil {
		return ActivityRecord{}, r.missing("ts")
	}
	rec.Timestamp = *ts

	if rec.UserID, err = r.optionalInt("userId"); err != nil {
		return ActivityRecord{}, err
	}
	if rec.SessionID, err = r.optionalInt("sessionId"); err != nil {
		return ActivityRecord{}, err
	}
	rec.Level = ToString(r.fields["level"])

	if rec.IsSongPlay() {
		switch {
		case rec.UserID == nil:
			return ActivityRecord{}, r.missing("userId")
		case rec.SessionID == nil:
			return ActivityRecord{}, r.missing("sessionId")
		case rec.Level == nil:
			return ActivityRecord{}, r.missing("level")
		}
	}

	rec.FirstName = ToString(r.fields["firstName"])
	rec.LastName = ToString(r.fields["lastName"])
	rec.Gender = ToString(r.fields["gender"])
	rec.Song = ToString(r.fields["song"])
	rec.Artist = ToString(r.fields["artist"])
	rec.Location = ToString(r.fields["location"])
	rec.UserAgent = ToString(r.fields["userAgent"])
	rec.Auth = ToString(r.fields["auth"])
	rec.Method = ToString(r.fields["method"])

	if rec.Length, err = r.optionalFloat("length"); err != nil {
		return ActivityRecord{}, err
	}
	if rec.ItemInSession, err = r.optionalInt("itemInSession"); err != nil {
		return ActivityRecord{}, err
	}
	if rec.Status, err = r.optionalInt("status"); err != nil {
		return ActivityRecord{}, err
	}
	if rec.Registration, err = r.optionalFloat("registration"); err != nil {
		return ActivityRecord{}, err
	}
	return rec, nil
}
