package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Songplay is a row of fact_songplay. Rows are appended, never updated.
type Songplay struct {
	SongplayID snowflake.ID `json:"songplay_id" gorm:"column:songplay_id;primaryKey;autoIncrement:false"`
	UserID     int64        `json:"user_id" gorm:"column:user_id;not null"`
	SongID     *string      `json:"song_id" gorm:"column:song_id"`
	ArtistID   *string      `json:"artist_id" gorm:"column:artist_id"`
	SessionID  int64        `json:"session_id" gorm:"column:session_id;not null"`
	StartTime  time.Time    `json:"start_time" gorm:"column:start_time;not null"`
	Level      string       `json:"level" gorm:"column:level;not null"`
	Location   *string      `json:"location" gorm:"column:location"`
	UserAgent  *string      `json:"user_agent" gorm:"column:user_agent"`
}

func (Songplay) TableName() string { return "fact_songplay" }

// Resolved reports whether both dimension references were found.
func (s Songplay) Resolved() bool {
	return s.SongID != nil && s.ArtistID != nil
}

// SongArtist is the pair of dimension keys matched by natural key.
type SongArtist struct {
	SongID   string `gorm:"column:song_id"`
	ArtistID string `gorm:"column:artist_id"`
}
