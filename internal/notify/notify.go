// Package notify dispatches valuation-run and duplicate-detector alerts
// across the channels the operator has configured: email via AWS SES or
// SendGrid, and SMS via AWS SNS or Twilio.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	sendgrid "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	twilioapi "github.com/twilio/twilio-go"
	twilioopenapi "github.com/twilio/twilio-go/rest/api/v2010"

	"chrisgross-ctrl-project/internal/config"
)

// Dispatcher sends operator-facing notifications (grid-worker run summary,
// repost-chain alerts) through whichever channels are configured, following
// the teacher's AWSCommunicationService shape: every send degrades to a
// logged no-op instead of an error when its channel isn't configured.
type Dispatcher struct {
	fromEmail string
	fromName  string

	ses *ses.Client
	sns *sns.Client

	sendgridClient *sendgrid.Client
	sendgridFrom   string

	twilioClient *twilioapi.RestClient
	twilioFrom   string
}

// New builds a Dispatcher from cfg, enabling each channel whose credentials
// are present. Absent credentials are not an error: a Dispatcher with every
// channel disabled is a valid, inert no-op notifier.
func New(ctx context.Context, cfg *config.Config) *Dispatcher {
	d := &Dispatcher{
		fromEmail: cfg.EmailFromAddress,
		fromName:  cfg.EmailFromName,
	}

	if awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion)); err == nil {
		d.ses = ses.NewFromConfig(awsCfg)
		d.sns = sns.NewFromConfig(awsCfg)
	} else {
		log.Printf("notify: AWS SES/SNS unavailable, channel disabled: %v", err)
	}

	if cfg.SendGridAPIKey != "" {
		d.sendgridClient = sendgrid.NewSendClient(cfg.SendGridAPIKey)
		d.sendgridFrom = cfg.EmailFromAddress
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		d.twilioClient = twilioapi.NewRestClientWithParams(twilioapi.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
		d.twilioFrom = cfg.TwilioPhoneNumber
	}

	return d
}

// SendEmail delivers an email via SES, falling back to SendGrid if SES is
// unavailable, and logging a disabled no-op if neither is configured.
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	if d.ses != nil {
		return d.sendViaSES(ctx, to, subject, bodyHTML, bodyText)
	}
	if d.sendgridClient != nil {
		return d.sendViaSendGrid(to, subject, bodyHTML, bodyText)
	}
	log.Printf("notify: [disabled] would email %s: %s", to, subject)
	return nil
}

func (d *Dispatcher) sendViaSES(ctx context.Context, to, subject, bodyHTML, bodyText string) error {
	input := &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body:    &sestypes.Body{Text: &sestypes.Content{Data: aws.String(bodyText)}},
		},
		Source: aws.String(d.fromEmail),
	}
	if bodyHTML != "" {
		input.Message.Body.Html = &sestypes.Content{Data: aws.String(bodyHTML)}
	}
	if _, err := d.ses.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

func (d *Dispatcher) sendViaSendGrid(to, subject, bodyHTML, bodyText string) error {
	from := sgmail.NewEmail(d.fromName, d.sendgridFrom)
	toAddr := sgmail.NewEmail("", to)
	message := sgmail.NewSingleEmail(from, subject, toAddr, bodyText, bodyHTML)
	resp, err := d.sendgridClient.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send email: status %d", resp.StatusCode)
	}
	return nil
}

// SendSMS delivers an SMS via SNS, falling back to Twilio, and logging a
// disabled no-op if neither channel is configured.
func (d *Dispatcher) SendSMS(ctx context.Context, to, message string) error {
	if d.sns != nil {
		return d.sendViaSNS(ctx, to, message)
	}
	if d.twilioClient != nil {
		return d.sendViaTwilio(to, message)
	}
	log.Printf("notify: [disabled] would SMS %s: %s", to, message)
	return nil
}

func (d *Dispatcher) sendViaSNS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(to),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}
	if _, err := d.sns.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish sms: %w", err)
	}
	return nil
}

func (d *Dispatcher) sendViaTwilio(to, message string) error {
	params := &twilioopenapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(d.twilioFrom)
	params.SetBody(message)
	if _, err := d.twilioClient.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send sms: %w", err)
	}
	return nil
}
