package domain

import "time"

// Song is a row of dim_song.
type Song struct {
	SongID   string   `json:"song_id" gorm:"column:song_id;primaryKey"`
	Title    string   `json:"title" gorm:"column:title;not null"`
	ArtistID string   `json:"artist_id" gorm:"column:artist_id;not null"`
	Year     *int64   `json:"year" gorm:"column:year"`
	Duration *float64 `json:"duration" gorm:"column:duration"`
}

func (Song) TableName() string { return "dim_song" }

// Artist is a row of dim_artist.
type Artist struct {
	ArtistID  string   `json:"artist_id" gorm:"column:artist_id;primaryKey"`
	Name      string   `json:"name" gorm:"column:name;not null"`
	Location  *string  `json:"location" gorm:"column:location"`
	Latitude  *float64 `json:"latitude" gorm:"column:latitude"`
	Longitude *float64 `json:"longitude" gorm:"column:longitude"`
}

func (Artist) TableName() string { return "dim_artist" }

// User is a row of dim_user. A user keeps one row per subscription level seen.
type User struct {
	UserID    int64   `json:"user_id" gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Level     string  `json:"level" gorm:"column:level;primaryKey"`
	FirstName *string `json:"first_name" gorm:"column:first_name"`
	LastName  *string `json:"last_name" gorm:"column:last_name"`
	Gender    *string `json:"gender" gorm:"column:gender"`
}

func (User) TableName() string { return "dim_user" }

// TimeBucket is a row of dim_time. Every field is derived from StartTime.
type TimeBucket struct {
	StartTime time.Time `json:"start_time" gorm:"column:start_time;primaryKey"`
	Hour      int       `json:"hour" gorm:"column:hour;not null"`
	Day       int       `json:"day" gorm:"column:day;not null"`
	Week      int       `json:"week" gorm:"column:week;not null"`
	Month     int       `json:"month" gorm:"column:month;not null"`
	Year      int       `json:"year" gorm:"column:year;not null"`
	Weekday   int       `json:"weekday" gorm:"column:weekday;not null"`
}

func (TimeBucket) TableName() string { return "dim_time" }

// NewTimeBucket derives the calendar fields of t in UTC. Weekday counts from Monday = 0.
func NewTimeBucket(t time.Time) TimeBucket {
	t = t.UTC()
	_, week := t.ISOWeek()
	return TimeBucket{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}
