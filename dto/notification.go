package dto

type NotificationQuery struct {
	UnreadOnly bool `form:"unread"`
}
