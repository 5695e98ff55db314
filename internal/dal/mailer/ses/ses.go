package ses

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/corray333/backend-labs/checkout/internal/service/models/mail"
	"github.com/spf13/viper"
)

const charset = "UTF-8"

// Sender sends transactional email through Amazon SES v2.
type Sender struct {
	client           *sesv2.Client
	from             string
	replyTo          string
	configurationSet string
}

// MustNewSender creates a new SES sender from the mail.* settings.
func MustNewSender() *Sender {
	from := viper.GetString("mail.from")
	if from == "" {
		panic("mail.from is not set in config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if region := viper.GetString("mail.ses.region"); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to load AWS config: %v", err))
	}

	slog.Info("SES mail sender configured", "region", cfg.Region, "from", from)

	return &Sender{
		client:           sesv2.NewFromConfig(cfg),
		from:             from,
		replyTo:          viper.GetString("mail.reply_to"),
		configurationSet: viper.GetString("mail.ses.configuration_set"),
	}
}

// Send delivers one message.
func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(charset)},
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String(charset)},
				},
			},
		},
	}
	if s.replyTo != "" {
		input.ReplyToAddresses = []string{s.replyTo}
	}
	if s.configurationSet != "" {
		input.ConfigurationSetName = aws.String(s.configurationSet)
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via ses: %w", err)
	}

	slog.Debug("Email accepted by SES", "message_id", aws.ToString(out.MessageId))

	return nil
}
