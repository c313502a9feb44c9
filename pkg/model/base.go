package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 基础模型，使用应用侧生成的 UUID 作为主键
// 不依赖数据库默认值，INSERT 不需要 RETURNING
type BaseModel struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate 钩子：生成 UUID
func (b *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = NewID()
	}
	return
}

// NewID 生成主键
func NewID() string {
	return uuid.New().String()
}
