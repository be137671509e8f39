package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/nimasrn/review-runner/internal/model"
)

// Settings keys a business may use to override the default wording.
const (
	SettingSmsTemplate   = "smsTemplate"
	SettingEmailSubject  = "emailSubject"
	SettingEmailTemplate = "emailTemplate"
)

const (
	defaultSmsTemplate   = "Hi {{.CustomerName}}, thanks for choosing {{.BusinessName}}! Would you leave us a quick review? {{.TrackingURL}} Opt out: {{.UnsubscribeURL}}"
	defaultEmailSubject  = "How was your experience with {{.BusinessName}}?"
	defaultEmailTemplate = "Hi {{.CustomerName}},\n\nThanks for choosing {{.BusinessName}}. We would love to hear how it went:\n{{.TrackingURL}}\n\nDon't want these emails? {{.UnsubscribeURL}}\n"
	emailHTMLTemplate    = `<p>Hi {{.CustomerName}},</p><p>Thanks for choosing {{.BusinessName}}. We would love to hear how it went.</p><p><a href="{{.TrackingURL}}">Leave a review</a></p><p style="font-size:12px"><a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>`
)

var htmlBody = htmltemplate.Must(htmltemplate.New("email_html").Parse(emailHTMLTemplate))

type messageData struct {
	CustomerName   string
	BusinessName   string
	TrackingURL    string
	UnsubscribeURL string
}

// renderMessage builds the outbound message for a review request.
func renderMessage(ch model.Channel, to string, business *model.Business, data messageData) (model.OutboundMessage, error) {
	msg := model.OutboundMessage{Channel: ch, To: to}

	var err error
	switch ch {
	case model.ChannelSMS:
		msg.Body, err = execute("sms", setting(business, SettingSmsTemplate, defaultSmsTemplate), data)
	case model.ChannelEmail:
		if msg.Subject, err = execute("subject", setting(business, SettingEmailSubject, defaultEmailSubject), data); err != nil {
			return msg, err
		}
		if msg.Body, err = execute("email", setting(business, SettingEmailTemplate, defaultEmailTemplate), data); err != nil {
			return msg, err
		}
		var buf bytes.Buffer
		err = htmlBody.Execute(&buf, data)
		msg.HTML = buf.String()
	default:
		err = fmt.Errorf("unsupported channel %q", ch)
	}
	return msg, err
}

func execute(name, text string, data messageData) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}

func setting(b *model.Business, key, fallback string) string {
	if b == nil {
		return fallback
	}
	if v, ok := b.Settings[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
