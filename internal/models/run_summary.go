package models

import "time"

// RunSummary records the outcome of one refresh.
type RunSummary struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	StartedAt     time.Time  `gorm:"type:datetime;not null" json:"started_at"`
	FinishedAt    time.Time  `gorm:"type:datetime" json:"finished_at"`
	Fetched       int        `gorm:"type:int;not null" json:"fetched"`
	Normalized    int        `gorm:"type:int;not null" json:"normalized"`
	Rejected      int        `gorm:"type:int;not null" json:"rejected"`
	New           int        `gorm:"type:int;not null" json:"new"`
	Updated       int        `gorm:"type:int;not null" json:"updated"`
	Unchanged     int        `gorm:"type:int;not null" json:"unchanged"`
	PersistErrors int        `gorm:"type:int;not null" json:"persist_errors"`
	RejectReasons StringList `gorm:"type:text" json:"reject_reasons,omitempty"`
}

// TableName はテーブル名を明示的に指定
func (RunSummary) TableName() string {
	return "run_summaries"
}
