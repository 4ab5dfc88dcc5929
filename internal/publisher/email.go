package publisher

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/config"
	"hangmantrainer/internal/models"
	"hangmantrainer/internal/report"
)

type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailCollector relays each result to a mailbox via Amazon SES
type EmailCollector struct {
	client    sesSender
	fromEmail string
	fromName  string
	to        string
	enabled   bool
	debug     bool
}

// NewEmailCollector creates the collector. It is disabled when sender or recipient is unset.
func NewEmailCollector(ctx context.Context, cfg config.EmailConfig) (*EmailCollector, error) {
	if cfg.FromEmail == "" || cfg.To == "" {
		log.Info().Msg("Email collector disabled: SES_FROM_EMAIL or RESULTS_EMAIL_TO not configured")
		return &EmailCollector{enabled: false, debug: cfg.Debug}, nil
	}

	if cfg.Debug {
		log.Debug().Str("region", cfg.Region).Str("from", cfg.FromEmail).Str("to", cfg.To).Msg("Initializing email collector")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", cfg.FromEmail).Str("region", cfg.Region).Msg("Email collector enabled")

	return newEmailCollector(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newEmailCollector(client sesSender, cfg config.EmailConfig) *EmailCollector {
	return &EmailCollector{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		to:        cfg.To,
		enabled:   true,
		debug:     cfg.Debug,
	}
}

// IsEnabled returns whether the collector sends anything
func (c *EmailCollector) IsEnabled() bool {
	return c.enabled
}

func (c *EmailCollector) Name() string {
	return "email"
}

func (c *EmailCollector) Collect(ctx context.Context, result models.LevelResult) error {
	if !c.enabled {
		if c.debug {
			log.Debug().Str("employeeId", result.EmployeeID).Msg("Skipping result email (collector disabled)")
		}
		return nil
	}

	subject := fmt.Sprintf("Hangman result: %s level %d (%s)", result.EmployeeID, result.Level, report.StatusLabel(result))
	textBody := report.FormatResult(result)
	htmlBody := "<pre>" + html.EscapeString(textBody) + "</pre>"

	fromAddress := c.fromEmail
	if c.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{c.to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	out, err := c.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", c.to, err)
	}

	if c.debug && out != nil && out.MessageId != nil {
		log.Debug().Str("messageId", *out.MessageId).Msg("SES SendEmail succeeded")
	}
	return nil
}
