package entity

import "time"

// User is an authenticated account with its persistent game statistics.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	Stats       UserStats `json:"statistics"`
	CreatedAt   time.Time `json:"createdAt"`
	LastActive  time.Time `json:"lastActive"`
}

type UserStats struct {
	GamesPlayed   int `json:"gamesPlayed"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Draws         int `json:"draws"`
	Level         int `json:"level"`
	XP            int `json:"xp"`
	XPToNextLevel int `json:"xpToNextLevel"`
}

// LevelChange reports the leveling effect of one recorded game.
type LevelChange struct {
	LeveledUp bool `json:"leveledUp"`
	NewLevel  int  `json:"newLevel,omitempty"`
}

// Game outcomes attributable to a user.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)
