package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var verifyEmailHTML = template.Must(template.New(TemplateVerifyEmail).Parse(`
<p>Hi {{.Name}},</p>
<p>Please verify your email address by clicking the link below:</p>
<p><a href="{{.Link}}">Verify Email</a></p>
<p>If you did not create an account, you can ignore this message.</p>
`))

var resetPasswordHTML = template.Must(template.New(TemplateResetPassword).Parse(`
<p>Hi {{.Name}},</p>
<p>You requested a password reset. Click the link below to choose a new password:</p>
<p><a href="{{.Link}}">Reset Password</a></p>
<p>This link expires in {{.ExpiresIn}}. If you did not request a reset, you can ignore this message.</p>
`))

// Render produces subject and HTML body for a known template name.
func Render(name string, data map[string]any) (subject, html string, err error) {
	var tpl *template.Template
	switch name {
	case TemplateVerifyEmail:
		subject = "Verify your email address"
		tpl = verifyEmailHTML
	case TemplateResetPassword:
		subject = "Reset your password"
		tpl = resetPasswordHTML
	default:
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
