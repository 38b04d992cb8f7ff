package dto

type TimelineQuery struct {
	Limit int `form:"limit" binding:"omitempty,gt=0,max=200"`
}
