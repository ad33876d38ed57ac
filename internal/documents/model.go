package documents

import "time"

// Document models the metadata row for one uploaded PDF. The externally
// visible UUID is distinct from both the primary key and the stored blob
// name.
type Document struct {
	ID           string    `gorm:"column:id;primaryKey;size:190;not null" json:"-"`
	UUID         string    `gorm:"column:uuid;size:64;not null;uniqueIndex" json:"uuid"`
	OwnerID      string    `gorm:"column:owner_id;size:190;not null;index" json:"-"`
	OriginalName string    `gorm:"column:original_name;size:512;not null" json:"originalName"`
	StoredName   string    `gorm:"column:stored_name;size:190;not null" json:"filename"`
	Path         string    `gorm:"column:path;size:512;not null" json:"path"`
	SizeBytes    int64     `gorm:"column:size_bytes;not null" json:"size"`
	PageCount    int       `gorm:"column:page_count;not null" json:"pageCount"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Document) TableName() string {
	return "documents"
}
