package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"studysync/config"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: StudySync <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		log.Printf("Error sending email: %v", err)
		return err
	}
	return nil
}

// HTML wrapper shared by every notification
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1B3A5C; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B3A5C; line-height: 1.6; }
			.content h2 { color: #1B3A5C; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #6DA7D7; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>STUDYSYNC</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 StudySync. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// SendConflictEmail tells the user a sync flagged possible duplicates
// that need their decision.
func SendConflictEmail(email, name string, count int) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your latest assignment sync found <b>%d</b> item(s) that look like duplicates of
		assignments you created yourself.</p>
		<div class="info-box">Nothing was changed. Open the tracker to choose which version to keep.</div>
	`, name, count)

	if err := SendEmail([]string{email}, "Assignments need your review", getEmailTemplate("Possible duplicate assignments", body)); err != nil {
		log.Printf("Error sending conflict email to %s: %v", email, err)
	}
}

// SendReconnectEmail tells the user a provider rejected their stored
// session and the connection must be re-established.
func SendReconnectEmail(email, name, provider string) {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your <b>%s</b> session has expired, so your assignments are no longer syncing.</p>
		<div class="info-box">Open the tracker settings and reconnect %s to resume syncing.</div>
	`, name, provider, provider)

	if err := SendEmail([]string{email}, "Please reconnect "+provider, getEmailTemplate("Connection expired", body)); err != nil {
		log.Printf("Error sending reconnect email to %s: %v", email, err)
	}
}
