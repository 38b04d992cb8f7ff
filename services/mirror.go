package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"cloud.google.com/go/firestore"
	"dunzo/model"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fcmBatchSize is the FCM limit of tokens per multicast request.
const fcmBatchSize = 500

// FirebaseMirror keeps a copy of every notification under
// Notifications/{userID}/Items/{notificationID} and pushes it through FCM.
// Either client may be nil.
type FirebaseMirror struct {
	fs  *firestore.Client
	fcm *messaging.Client
}

func NewFirebaseMirror(fs *firestore.Client, fcm *messaging.Client) *FirebaseMirror {
	return &FirebaseMirror{fs: fs, fcm: fcm}
}

func (m *FirebaseMirror) items(userID int) *firestore.CollectionRef {
	return m.fs.Collection("Notifications").Doc(strconv.Itoa(userID)).Collection("Items")
}

func (m *FirebaseMirror) Publish(ctx context.Context, n model.Notification, fcmToken string) error {
	if m.fs != nil {
		_, err := m.items(n.UserID).Doc(strconv.Itoa(n.NotificationID)).Set(ctx, map[string]interface{}{
			"notificationId": n.NotificationID,
			"title":          n.Title,
			"message":        n.Message,
			"isRead":         n.IsRead,
			"createdAt":      n.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to write notification: %v", err)
		}
	}
	if m.fcm == nil || fcmToken == "" {
		return nil
	}
	_, err := m.fcm.Send(ctx, &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: map[string]string{"notification_id": strconv.Itoa(n.NotificationID)},
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %v", err)
	}
	return nil
}

func (m *FirebaseMirror) Multicast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if m.fcm == nil {
		return nil
	}
	for i := 0; i < len(tokens); i += fcmBatchSize {
		end := i + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}

		batch := tokens[i:end]
		message := &messaging.MulticastMessage{
			Data: data,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Tokens: batch,
		}

		response, err := m.fcm.SendEachForMulticast(ctx, message)
		if err != nil {
			log.Printf("Error sending batch %d-%d: %v", i, end-1, err)
			continue
		}
		if response.FailureCount > 0 {
			for idx, resp := range response.Responses {
				if !resp.Success {
					log.Printf("Failed to send to token %s: %v", batch[idx], resp.Error)
				}
			}
		}
	}
	return nil
}

// Remove deletes the mirrored copy. A copy that never made it is not an error.
func (m *FirebaseMirror) Remove(ctx context.Context, n model.Notification) error {
	if m.fs == nil {
		return nil
	}
	_, err := m.items(n.UserID).Doc(strconv.Itoa(n.NotificationID)).Delete(ctx, firestore.Exists)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to delete notification: %v", err)
	}
	return nil
}

// PurgeUser deletes every mirrored notification of a removed account.
func (m *FirebaseMirror) PurgeUser(ctx context.Context, userID int) error {
	if m.fs == nil {
		return nil
	}
	iter := m.items(userID).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list notifications: %v", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete notification %s: %v", doc.Ref.ID, err)
		}
	}
	_, err := m.fs.Collection("Notifications").Doc(strconv.Itoa(userID)).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}
