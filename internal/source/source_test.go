package source

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

const activityJSON = `{"artist":null,"auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":38,"song":null,"status":200,"ts":1541105830796,"userAgent":"Mozilla\/5.0","userId":"39"}
{"artist":"Des'ree","auth":"Logged In","firstName":"Kaylee","gender":"F","itemInSession":1,"lastName":"Summers","length":246.30812,"level":"free","location":"Phoenix-Mesa-Scottsdale, AZ","method":"PUT","page":"NextSong","registration":1540344794796.0,"sessionId":139,"song":"You Gotta Be","status":200,"ts":1541106106796,"userAgent":"Mozilla\/5.0","userId":"8"}
{"artist":null,"auth":"Logged Out","firstName":null,"gender":null,"itemInSession":2,"lastName":null,"length":null,"level":"free","location":null,"method":"PUT","page":"Login","registration":null,"sessionId":52,"song":null,"status":307,"ts":1541106352796,"userAgent":null,"userId":""}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCatalogNormalizesValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "TRAAAAW128F429D538.json", catalogJSON)

	var records []CatalogRecord
	for rec, err := range ReadCatalog(path) {
		require.NoError(t, err)
		records = append(records, rec)
	}

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "SOMZWCG12A8C13C480", rec.SongID)
	assert.Equal(t, "I Didn't Mean To", rec.Title)
	assert.Equal(t, "ARD7TVE1187B99BFB1", rec.ArtistID)
	assert.Equal(t, "Casual", rec.ArtistName)
	require.NotNil(t, rec.ArtistLocation)
	assert.Equal(t, "California - LA", *rec.ArtistLocation)
	assert.Nil(t, rec.ArtistLatitude)
	assert.Nil(t, rec.ArtistLongitude)
	require.NotNil(t, rec.Duration)
	assert.InDelta(t, 218.93179, *rec.Duration, 1e-9)
	require.NotNil(t, rec.Year)
	assert.Equal(t, int64(0), *rec.Year)
	require.NotNil(t, rec.NumSongs)
	assert.Equal(t, int64(1), *rec.NumSongs)
}

func TestReadActivityParsesEveryLine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "2018-11-01-events.json", activityJSON)

	var records []ActivityRecord
	for rec, err := range ReadActivity(path) {
		require.NoError(t, err)
		records = append(records, rec)
	}

	require.Len(t, records, 3)
	assert.False(t, records[0].IsSongPlay())
	assert.True(t, records[1].IsSongPlay())

	play := records[1]
	require.NotNil(t, play.UserID)
	assert.Equal(t, int64(8), *play.UserID)
	require.NotNil(t, play.SessionID)
	assert.Equal(t, int64(139), *play.SessionID)
	require.NotNil(t, play.Length)
	assert.InDelta(t, 246.30812, *play.Length, 1e-9)
	require.NotNil(t, play.Registration)
	assert.Equal(t, "2018-11-01T21:01:46.796Z", play.StartTime().Format("2006-01-02T15:04:05.000Z07:00"))

	assert.Nil(t, records[2].UserID, "empty userId is absent")
	assert.Nil(t, records[2].FirstName)
}

func TestReadIsRestartable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "events.json", activityJSON)
	seq := ReadActivity(path)

	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count())
}

func TestReadStopsWhenConsumerBreaks(t *testing.T) {
	path := writeFile(t, t.TempDir(), "events.json", activityJSON)

	n := 0
	for range ReadActivity(path) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestReadMalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.json", `{"song_id": "SO1", "title": `)

	var errs []error
	for _, err := range ReadCatalog(path) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	var parseErr *FileParseError
	require.True(t, errors.As(errs[0], &parseErr))
	assert.Equal(t, path, parseErr.Path)
}

func TestReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	for _, err := range ReadActivity(path) {
		var parseErr *FileParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestReadReportsMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
		field   string
	}{
		{name: "page", content: `{"ts": 1541106106796}`, field: "page"},
		{name: "ts", content: `{"page": "Home"}`, field: "ts"},
		{name: "user", content: `{"page": "NextSong", "ts": 1, "userId": "", "sessionId": 1, "level": "free"}`, field: "userId"},
		{name: "session", content: `{"page": "NextSong", "ts": 1, "userId": "3", "level": "free"}`, field: "sessionId"},
		{name: "level", content: `{"page": "NextSong", "ts": 1, "userId": "3", "sessionId": 1, "level": ""}`, field: "level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "events.json", tc.content)
			for _, err := range ReadActivity(path) {
				var fieldErr *FieldMissingError
				require.ErrorAs(t, err, &fieldErr)
				assert.Equal(t, tc.field, fieldErr.Field)
				assert.Equal(t, 1, fieldErr.Line)
			}
		})
	}
}

func TestReadSkipsOnlyTheBadRow(t *testing.T) {
	content := `{"page": "NextSong", "ts": 1, "sessionId": 1, "level": "free"}
{"page": "NextSong", "ts": 2, "userId": 7, "sessionId": 1, "level": "paid"}`
	path := writeFile(t, t.TempDir(), "events.json", content)

	var good []ActivityRecord
	var bad int
	for rec, err := range ReadActivity(path) {
		if err != nil {
			bad++
			continue
		}
		good = append(good, rec)
	}
	assert.Equal(t, 1, bad)
	require.Len(t, good, 1)
	assert.Equal(t, int64(7), *good[0].UserID)
}

func TestReadRejectsNonNumericValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "song.json", `{"song_id": "SO1", "title": "T", "artist_id": "AR1", "artist_name": "A", "duration": "long"}`)

	for _, err := range ReadCatalog(path) {
		var fieldErr *FieldMissingError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "duration", fieldErr.Field)
		assert.ErrorIs(t, err, ErrNotNumeric)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  *int64
		err   bool
	}{
		{name: "nil", value: nil},
		{name: "empty string", value: ""},
		{name: "number", value: json.Number("139"), want: ptr(int64(139))},
		{name: "numeric string", value: " 39 ", want: ptr(int64(39))},
		{name: "integral float", value: json.Number("1540919166796.0"), want: ptr(int64(1540919166796))},
		{name: "fraction", value: json.Number("1.5"), err: true},
		{name: "bool", value: true, err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToInt64(tc.value)
			if tc.err {
				assert.ErrorIs(t, err, ErrNotNumeric)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToFloat64(t *testing.T) {
	got, err := ToFloat64(json.Number("200.5"))
	require.NoError(t, err)
	assert.Equal(t, 200.5, *got)

	got, err = ToFloat64("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ToFloat64("NaN")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestToString(t *testing.T) {
	assert.Nil(t, ToString(nil))
	assert.Nil(t, ToString("   "))
	assert.Equal(t, "39", *ToString(json.Number("39")))
	assert.Equal(t, "free", *ToString("free"))
}

func TestDiscoverFindsNestedJSONFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A/B/C/TRABCEI128F424C983.json", catalogJSON)
	writeFile(t, dir, "A/A/TRAAAAW128F429D538.json", catalogJSON)
	writeFile(t, dir, "A/notes.txt", "ignored")

	files, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f))
	}
	assert.Equal(t, "TRAAAAW128F429D538.json", filepath.Base(files[0]))
	assert.Equal(t, "TRABCEI128F424C983.json", filepath.Base(files[1]))
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("activity")
	require.NoError(t, err)
	assert.Equal(t, KindActivity, kind)

	_, err = ParseKind("audio")
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
