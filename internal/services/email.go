package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"refyn-backend/internal/config"
)

// EmailService sends transactional mail over SMTP. When no SMTP host is
// configured (local development) it logs the message instead of sending.
type EmailService struct {
	cfg     *config.Config
	devMode bool
}

func NewEmailService(cfg *config.Config) *EmailService {
	devMode := cfg.SMTPHost == ""
	if devMode {
		log.Println("email: SMTP_HOST not set, emails will be logged to console")
	}
	return &EmailService{cfg: cfg, devMode: devMode}
}

func (s *EmailService) SendVerification(to, name, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.FrontendURL, token)

	subject := "Verify your Refyn account"
	body := fmt.Sprintf(`
		<h2>Welcome to Refyn, %s!</h2>
		<p>Confirm your email address to start sharing your work and getting feedback.</p>
		<p><a href="%s">Verify my email</a></p>
		<p>This link expires in 24 hours. If you didn't create an account, you can ignore this email.</p>
	`, htmlEscape(name), link)

	s.send(to, subject, body)
}

func (s *EmailService) SendCritiqueReady(to, name, workTitle string) {
	subject := "Your critique is ready"
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>The critique for <strong>%s</strong> has been generated and is waiting for you.</p>
		<p><a href="%s/critiques">View your critiques</a></p>
	`, htmlEscape(name), htmlEscape(workTitle), s.cfg.FrontendURL)

	s.send(to, subject, body)
}

func (s *EmailService) SendWeeklyDigest(to, name string, critiques, courses int) {
	subject := "Your week on Refyn"
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Here's what you did this week:</p>
		<ul>
			<li>%d critique(s) received</li>
			<li>%d course(s) generated</li>
		</ul>
		<p>Keep the momentum going: <a href="%s">upload something new</a>.</p>
	`, htmlEscape(name), critiques, courses, s.cfg.FrontendURL)

	s.send(to, subject, body)
}

func (s *EmailService) SendCourseReminder(to, name, courseTitle string) {
	subject := "Pick up where you left off"
	body := fmt.Sprintf(`
		<h2>Hi %s,</h2>
		<p>Your course <strong>%s</strong> is still waiting. A few minutes a day goes a long way.</p>
		<p><a href="%s/courses">Continue learning</a></p>
	`, htmlEscape(name), htmlEscape(courseTitle), s.cfg.FrontendURL)

	s.send(to, subject, body)
}

func (s *EmailService) send(to, subject, htmlBody string) {
	if s.devMode {
		log.Printf("email (dev mode) to=%s subject=%q\n%s", to, subject, htmlBody)
		return
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.SMTPFrom,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		htmlBody,
	}, "\r\n")

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, []byte(msg)); err != nil {
		// email failures are logged, not surfaced to the caller
		log.Printf("email: failed to send to %s: %v", to, err)
	}
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
