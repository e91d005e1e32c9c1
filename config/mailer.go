package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"

	mail "github.com/go-mail/mail/v2"
)

// MailerSettings holds SMTP settings read from the environment.
type MailerSettings struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string
	SkipTLSVerify bool
}

var mailer = loadMailerSettings()

func loadMailerSettings() MailerSettings {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return MailerSettings{
		Host:          strings.TrimSpace(os.Getenv("SMTP_HOST")),
		Port:          port,
		User:          os.Getenv("SMTP_USER"),
		Pass:          os.Getenv("SMTP_PASS"),
		From:          strings.TrimSpace(os.Getenv("SMTP_FROM")), // e.g. "Recruitment Ops <no-reply@your.org>"
		SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
	}
}

// ReloadMailerConfig re-reads SMTP settings after godotenv has run.
func ReloadMailerConfig() {
	mailer = loadMailerSettings()
}

// MailerConfigured reports whether SendMail can deliver.
func MailerConfigured() bool {
	return mailer.Host != "" && mailer.From != ""
}

func SendMail(to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	if !MailerConfigured() {
		return fmt.Errorf("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}

	m := mail.NewMessage()
	m.SetHeader("From", mailer.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := mail.NewDialer(mailer.Host, mailer.Port, mailer.User, mailer.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         mailer.Host,
		InsecureSkipVerify: mailer.SkipTLSVerify,
	}

	return d.DialAndSend(m)
}
