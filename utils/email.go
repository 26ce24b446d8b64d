package utils

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/gomail.v2"
)

// SendShareEmail delivers a tenant's share link to a recipient over SMTP.
// The message body is composed by the caller; this only handles transport.
func SendShareEmail(recipientEmail, recipientName, senderName, shareURL, message string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	greeting := "Hello"
	if recipientName != "" {
		greeting = "Hello " + recipientName
	}

	body := message
	if body == "" {
		body = fmt.Sprintf("%s,\n\n%s has shared their RentCard rental profile with you.\n\nView it here: %s\n\nBest regards,\nRentCard", greeting, senderName, shareURL)
	} else {
		body = fmt.Sprintf("%s,\n\n%s\n\nView the profile: %s\n\nBest regards,\nRentCard", greeting, body, shareURL)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s shared their rental profile with you", senderName))
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		// One retry for transient SMTP failures, no backoff
		log.Printf("Failed to send share email, retrying once: %v", err)
		if err := d.DialAndSend(m); err != nil {
			return err
		}
	}
	return nil
}
