// Package notify delivers transactional email for form submissions. The
// dispatcher separates critical sends (failure surfaces to the caller as
// a NotificationError) from non-critical sends (failure is logged and
// swallowed, optionally fire-and-forget). Records are always persisted
// before any send is attempted; nothing here touches the store.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/forms-api/internal/pkg/logger"
	"github.com/ignite/forms-api/internal/submission"
)

// Message is one outbound email.
type Message struct {
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	HTML     string
	Text     string
}

// Gateway submits a message for delivery and returns the provider
// message id. Implementations attach a submission.StatusError when the
// provider reports an HTTP-like status, so retry classification never
// inspects raw SDK errors.
type Gateway interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// SESAPI is the slice of the SESv2 client the gateway uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESGateway sends through AWS SES v2.
type SESGateway struct {
	client SESAPI
}

// NewSESGateway wraps an SESv2 client.
func NewSESGateway(client SESAPI) *SESGateway {
	return &SESGateway{client: client}
}

// Send delivers msg through SES. Simple (non-templated) content, UTF-8.
func (g *SESGateway) Send(ctx context.Context, msg *Message) (string, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.From)),
		Destination:      &types.Destination{ToAddresses: msg.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.Text != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	result, err := g.client.SendEmail(ctx, input)
	if err != nil {
		return "", wrapSESError(err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	logger.Info("email accepted by SES", "to", first(msg.To), "message_id", messageID)
	return messageID, nil
}

// wrapSESError attaches the HTTP status from the SES response, when one
// exists, as a typed error kind.
func wrapSESError(err error) error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return &submission.StatusError{Code: re.HTTPStatusCode(), Err: err}
	}
	return err
}

func first(to []string) string {
	if len(to) == 0 {
		return ""
	}
	return to[0]
}
