package mailer

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var testRunSummary = RunSummaryData{
	Username:     "Instructor",
	SessionID:    "s1",
	RunID:        "run-1",
	Total:        3,
	SuccessCount: 2,
	ErrorCount:   1,
	Errors:       []RunSummaryError{{StudentName: "Bob <b>", Message: "boom"}},
	BundleURL:    "https://example.com/bundle.zip",
}

func TestRenderRunSummary(t *testing.T) {
	subject, body, err := Render(RUN_SUMMARY_TEMPLATE, testRunSummary)
	if err != nil {
		t.Fatal(err)
	}

	if subject != "Certificates generated: 2 of 3" {
		t.Errorf("unexpected subject %q", subject)
	}

	for _, want := range []string{"session s1", "Run: run-1", "Failed: 1", "Bob &lt;b&gt;: boom", `href="https://example.com/bundle.zip"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, err := Render("missing.tmpl", nil); err == nil {
		t.Error("expected error for missing template")
	}
}

type fakeSendClient struct {
	failures int
	calls    int
}

func (f *fakeSendClient) Send(email *mail.SGMailV3) (*rest.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("network down")
	}
	return &rest.Response{StatusCode: http.StatusAccepted}, nil
}

func TestSendGridMailer(t *testing.T) {
	t.Run("disabled without api key", func(t *testing.T) {
		m := NewSendgrid("", "", false, nil)
		status, err := m.Send(RUN_SUMMARY_TEMPLATE, "Instructor", "i@example.com", testRunSummary)
		if err != nil || status != 0 {
			t.Errorf("expected silent skip, got %d %v", status, err)
		}
	})

	t.Run("retries then succeeds", func(t *testing.T) {
		client := &fakeSendClient{failures: 2}
		m := NewSendgrid("key", "from@example.com", false, nil)
		m.client = client
		m.backoff = 0

		status, err := m.Send(RUN_SUMMARY_TEMPLATE, "Instructor", "i@example.com", testRunSummary)
		if err != nil || status != http.StatusAccepted {
			t.Errorf("expected 202, got %d %v", status, err)
		}
		if client.calls != 3 {
			t.Errorf("expected 3 attempts, got %d", client.calls)
		}
	})

	t.Run("gives up after max retry", func(t *testing.T) {
		client := &fakeSendClient{failures: MAX_RETRY}
		m := NewSendgrid("key", "from@example.com", false, nil)
		m.client = client
		m.backoff = 0

		status, err := m.Send(RUN_SUMMARY_TEMPLATE, "Instructor", "i@example.com", testRunSummary)
		if err == nil || status != -1 {
			t.Errorf("expected failure, got %d %v", status, err)
		}
	})
}
