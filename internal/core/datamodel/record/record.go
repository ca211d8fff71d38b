package record

import "time"

// Record is one persisted collection: the whole JSON array lives in Payload.
type Record struct {
	Collection string    `gorm:"column:collection;primaryKey;size:64"`
	Payload    string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Record) TableName() string {
	return "records"
}
