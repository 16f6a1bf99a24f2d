package model

// ChatLog keeps a chat message or issued command, keyed by log_id.
type ChatLog struct {
	LogID   int64  `gorm:"primaryKey;autoIncrement:false" json:"log_id"`
	Message string `gorm:"type:text" json:"message"`
}

func (ChatLog) TableName() string { return "chat_log" }
