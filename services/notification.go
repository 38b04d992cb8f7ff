package services

import (
	"context"
	"log"
	"time"

	"dunzo/model"

	"gorm.io/gorm"
)

// ListNotifications returns the requester's notifications, newest first.
func (p *Planner) ListNotifications(ctx context.Context, requester int, unreadOnly bool) ([]model.Notification, error) {
	q := p.db.WithContext(ctx).Where("user_id = ?", requester)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var notes []model.Notification
	if err := q.Order("created_at DESC").Order("notification_id DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func ownNotification(tx *gorm.DB, notificationID, requester int) (*model.Notification, error) {
	var n model.Notification
	if err := tx.Where("notification_id = ?", notificationID).First(&n).Error; err != nil {
		return nil, lookup(err, "Notification")
	}
	if n.UserID != requester {
		return nil, denied("You can only manage your own notifications")
	}
	return &n, nil
}

func (p *Planner) MarkRead(ctx context.Context, notificationID, requester int) (*model.Notification, error) {
	db := p.db.WithContext(ctx)
	n, err := ownNotification(db, notificationID, requester)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := db.Model(n).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead marks every unread notification of the requester and returns
// how many changed.
func (p *Planner) MarkAllRead(ctx context.Context, requester int) (int64, error) {
	res := p.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", requester, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteNotification deletes one of the requester's notifications and its
// mirrored copy.
func (p *Planner) DeleteNotification(ctx context.Context, notificationID, requester int) error {
	db := p.db.WithContext(ctx)
	n, err := ownNotification(db, notificationID, requester)
	if err != nil {
		return err
	}
	if err := db.Delete(n).Error; err != nil {
		return err
	}
	if p.mirror != nil {
		if err := p.mirror.Remove(ctx, *n); err != nil {
			log.Printf("Warning: failed to remove mirrored notification %d: %v", n.NotificationID, err)
		}
	}
	return nil
}

// PurgeReadNotifications drops read notifications older than maxAge.
func (p *Planner) PurgeReadNotifications(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := p.now().Add(-maxAge)
	var stale []model.Notification
	db := p.db.WithContext(ctx)
	if err := db.Where("is_read = ? AND created_at < ?", true, cutoff).Find(&stale).Error; err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	res := db.Delete(&stale)
	if res.Error != nil {
		return 0, res.Error
	}
	if p.mirror != nil {
		for _, n := range stale {
			if err := p.mirror.Remove(ctx, n); err != nil {
				log.Printf("Warning: failed to remove mirrored notification %d: %v", n.NotificationID, err)
			}
		}
	}
	return res.RowsAffected, nil
}
