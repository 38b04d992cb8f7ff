package connection

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FBConnection returns the Firestore and FCM clients. Both are nil when no
// credentials are configured, which turns the notification mirror off.
func FBConnection(ctx context.Context, cfg Config) (*firestore.Client, *messaging.Client, error) {
	if cfg.Credentials == "" {
		log.Println("Warning: GOOGLE_APPLICATION_CREDENTIALS not set, Firebase mirror disabled")
		return nil, nil, nil
	}
	var conf *firebase.Config
	if cfg.FirebaseProject != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProject}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(cfg.Credentials))
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing firebase app: %v", err)
	}
	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing firestore: %v", err)
	}
	fcm, err := app.Messaging(ctx)
	if err != nil {
		fs.Close()
		return nil, nil, fmt.Errorf("error initializing messaging: %v", err)
	}
	return fs, fcm, nil
}
