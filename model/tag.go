package model

type Tag struct {
	TagID     int    `gorm:"column:tag_id;primaryKey;autoIncrement" json:"tag_id"`
	ProjectID int    `gorm:"column:project_id;not null;index" json:"project_id"`
	Name      string `gorm:"column:name;type:varchar(50);not null" json:"name"`
	HexColor  string `gorm:"column:hex_color;type:varchar(7);default:'#000000';not null" json:"hex_color"`
}

func (Tag) TableName() string {
	return "tags"
}
