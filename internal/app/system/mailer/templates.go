// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html"
	"html/template"
)

// PasswordResetEmailData contains the data for a password reset email.
type PasswordResetEmailData struct {
	AppName   string
	ResetURL  string
	ExpiryMin int
}

// PasswordResetEmail generates both plain text and HTML versions of a password reset email.
func PasswordResetEmail(data PasswordResetEmailData) (textBody, htmlBody string) {
	// Plain text version
	textBody = "You requested a password reset for your " + data.AppName + " account.\n\n" +
		"Click the link below to reset your password:\n\n" +
		data.ResetURL + "\n\n" +
		"This link will expire in " + itoa(data.ExpiryMin) + " minutes.\n\n" +
		"If you did not request this, you can safely ignore this email."

	// HTML version
	var buf bytes.Buffer
	htmlTmpl.Execute(&buf, data)
	htmlBody = buf.String()

	return textBody, htmlBody
}

// PasswordChangedEmailData contains the data for a password changed confirmation email.
type PasswordChangedEmailData struct {
	AppName  string
	LoginURL string
}

// PasswordChangedEmail generates both plain text and HTML versions of a password changed confirmation email.
func PasswordChangedEmail(data PasswordChangedEmailData) (textBody, htmlBody string) {
	// Plain text version
	textBody = "Your " + data.AppName + " password has been changed.\n\n" +
		"If you made this change, you can safely ignore this email.\n\n" +
		"If you did NOT make this change, your account may have been compromised. " +
		"Please reset your password immediately by visiting:\n" + data.LoginURL + "\n\n" +
		"For security, we recommend you also review your recent account activity."

	// HTML version
	var buf bytes.Buffer
	passwordChangedHTMLTmpl.Execute(&buf, data)
	htmlBody = buf.String()

	return textBody, htmlBody
}

// itoa converts an int to string without importing strconv for one call site.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}

var htmlTmpl = template.Must(template.New("password_reset").Funcs(template.FuncMap{
	"safe": func(s string) template.HTML { return template.HTML(s) },
	"esc":  html.EscapeString,
}).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Password Reset</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.AppName}}</h1>
            </td>
          </tr>
          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">Reset Your Password</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                You requested a password reset for your account. Click the button below to create a new password.
              </p>
              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding: 8px 0 24px 0;">
                    <a href="{{.ResetURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 15px; font-weight: 600; border-radius: 6px;">Reset Password</a>
                  </td>
                </tr>
              </table>
              <p style="margin: 0 0 16px 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                This link will expire in <strong>{{.ExpiryMin}} minutes</strong>.
              </p>
              <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #71717a;">
                If you didn't request this password reset, you can safely ignore this email. Your password will remain unchanged.
              </p>
            </td>
          </tr>
          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #fafafa; border-top: 1px solid #e4e4e7; border-radius: 0 0 8px 8px;">
              <p style="margin: 0 0 8px 0; font-size: 12px; color: #a1a1aa; text-align: center;">
                If the button doesn't work, copy and paste this link into your browser:
              </p>
              <p style="margin: 0; font-size: 12px; color: #4f46e5; text-align: center; word-break: break-all;">
                {{.ResetURL}}
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))

var passwordChangedHTMLTmpl = template.Must(template.New("password_changed").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Password Changed</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.AppName}}</h1>
            </td>
          </tr>
          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <!-- Warning Icon -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding: 0 0 16px 0;">
                    <div style="display: inline-block; width: 48px; height: 48px; background-color: #fef3c7; border-radius: 50%; text-align: center; line-height: 48px; font-size: 24px;">&#9888;</div>
                  </td>
                </tr>
              </table>
              <h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b; text-align: center;">Password Changed</h2>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                Your {{.AppName}} password has been successfully changed.
              </p>
              <p style="margin: 0 0 24px 0; font-size: 15px; line-height: 1.6; color: #52525b;">
                <strong>If you made this change</strong>, you can safely ignore this email.
              </p>
              <div style="padding: 16px; background-color: #fef2f2; border-radius: 6px; border-left: 4px solid #ef4444; margin-bottom: 24px;">
                <p style="margin: 0; font-size: 14px; line-height: 1.6; color: #991b1b;">
                  <strong>If you did NOT make this change</strong>, your account may have been compromised. Please reset your password immediately and review your recent account activity.
                </p>
              </div>
              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding: 0 0 24px 0;">
                    <a href="{{.LoginURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 15px; font-weight: 600; border-radius: 6px;">Go to Login</a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>
          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #fafafa; border-top: 1px solid #e4e4e7; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #a1a1aa; text-align: center;">
                This is an automated security notification. Please do not reply to this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))
