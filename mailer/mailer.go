// Package mailer delivers transactional e-mail.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Mailer sends one HTML message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px;">
  <h2 style="color: #333; text-align: center;">Password Reset Request</h2>
  <p style="font-size: 16px; color: #555;">Hello,</p>
  <p style="font-size: 16px; color: #555;">You recently requested to reset the password for your account. Please use the following One-Time Password (OTP) to complete the process:</p>
  <div style="text-align: center; margin: 30px 0;">
    <span style="display: inline-block; padding: 15px 25px; background-color: #f0f0f0; border-radius: 8px; font-size: 24px; font-weight: bold; color: #333; letter-spacing: 2px;">{{.Code}}</span>
  </div>
  <p style="font-size: 14px; color: #777; text-align: center;">This OTP is valid for <b>{{.Validity}}</b>.</p>
  <p style="font-size: 16px; color: #555;">If you did not request a password reset, please ignore this email or contact support if you have any concerns.</p>
</div>
`))

// PasswordResetMessage renders the OTP e-mail for to.
func PasswordResetMessage(to, code string, validity time.Duration) (Message, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Code     string
		Validity string
	}{Code: code, Validity: humanDuration(validity)})
	if err != nil {
		return Message{}, fmt.Errorf("render otp mail: %w", err)
	}
	return Message{To: to, Subject: "Password Reset Request", HTML: buf.String()}, nil
}

// validityMagnitudes keeps seconds and minutes exact up to an hour.
var validityMagnitudes = []humanize.RelTimeMagnitude{
	{D: 2 * time.Second, Format: "1 second %s", DivBy: 1},
	{D: time.Minute, Format: "%d seconds %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d hours %s", DivBy: time.Hour},
}

func humanDuration(d time.Duration) string {
	now := time.Now()
	return strings.TrimSpace(humanize.CustomRelTime(now, now.Add(d), "", "", validityMagnitudes))
}
