package models

import "gorm.io/gorm"

// MediaDirectory 媒体目录，parent 为 null 表示根目录
type MediaDirectory struct {
	gorm.Model
	Slug string `gorm:"not null;index:idx_dir_slug"`
	Name string `gorm:"not null"`

	ParentDirectoryID *uint `gorm:"index"`
}
