package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
)

//go:embed verify_email.tmpl
var templateFS embed.FS

var verifyTmpl = htmltmpl.Must(htmltmpl.ParseFS(templateFS, "verify_email.tmpl"))

type verificationData struct {
	Name      string
	VerifyURL string
}

// renderVerification produces the HTML body and a plain-text fallback for
// the verification email.
func renderVerification(data verificationData) (html, text string, err error) {
	var buf bytes.Buffer
	if err := verifyTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}

	text = fmt.Sprintf(
		"Hey %s,\n\nPlease confirm your email address to get started:\n%s\n\nIf you did not initiate this action, please contact support.\n",
		data.Name, data.VerifyURL,
	)
	return buf.String(), text, nil
}
