package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender is the part of the Expo client the notifiers use.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
	PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error)
}

// ExpoAdapter sends admin pushes through the Expo push service.
type ExpoAdapter struct {
	client *exponent.Client
}

// NewExpoAdapter builds an Expo push client. accessToken may be empty when
// enhanced push security is off for the project.
func NewExpoAdapter(accessToken string) *ExpoAdapter {
	if accessToken == "" {
		return &ExpoAdapter{client: exponent.NewClient()}
	}
	return &ExpoAdapter{client: exponent.NewClient(exponent.WithAccessToken(accessToken))}
}

func (a *ExpoAdapter) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.Publish(ctx, msgs)
}

func (a *ExpoAdapter) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.PublishSingle(ctx, msg)
}
