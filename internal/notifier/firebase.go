package notifier

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmBatchLimit is the most tokens FCM accepts in one multicast.
const fcmBatchLimit = 500

type FirebaseService struct {
	client *messaging.Client
}

func NewFirebaseService(ctx context.Context, credentialsFile string) (*FirebaseService, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}
	return &FirebaseService{client: client}, nil
}

// SendToTokens pushes one notification to every token. Tokens FCM reports
// as unregistered are returned so the caller can forget them.
func (f *FirebaseService) SendToTokens(ctx context.Context, tokens []string, push Push) ([]string, error) {
	var stale []string
	for start := 0; start < len(tokens); start += fcmBatchLimit {
		end := min(start+fcmBatchLimit, len(tokens))
		batch := tokens[start:end]

		resp, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: push.Title,
				Body:  push.Body,
			},
			Data: push.Data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
		})
		if err != nil {
			return stale, fmt.Errorf("error sending batch: %w", err)
		}
		for i, r := range resp.Responses {
			if !r.Success && messaging.IsUnregistered(r.Error) {
				stale = append(stale, batch[i])
			}
		}
		if resp.SuccessCount == 0 && resp.FailureCount > len(stale) {
			return stale, fmt.Errorf("all %d push deliveries failed", resp.FailureCount)
		}
	}
	return stale, nil
}
