package model

import "gorm.io/datatypes"

// SignLog keeps the text lines written to a sign, keyed by log_id.
type SignLog struct {
	LogID int64          `gorm:"primaryKey;autoIncrement:false" json:"log_id"`
	Lines datatypes.JSON `json:"lines"`
}

func (SignLog) TableName() string { return "signs_log" }
