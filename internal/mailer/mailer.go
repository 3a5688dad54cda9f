package mailer

import (
	"bytes"
	"embed"
	"html/template"
)

const (
	FROM_NAME            = "AutoCert LMS"
	MAX_RETRY            = 3
	RUN_SUMMARY_TEMPLATE = "run_summary.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, toUsername, toEmail string, data any) (int, error)
}

// RunSummaryData feeds templates/run_summary.tmpl.
type RunSummaryData struct {
	Username     string
	SessionID    string
	RunID        string
	Total        int
	SuccessCount int
	ErrorCount   int
	Errors       []RunSummaryError
	BundleURL    string
}

type RunSummaryError struct {
	StudentName string
	Message     string
}

// Render executes the "subject" and "body" blocks of an embedded template.
func Render(templateFile string, data any) (string, string, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return "", "", err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return "", "", err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return "", "", err
	}

	return subject.String(), body.String(), nil
}
