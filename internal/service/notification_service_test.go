package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lshigami/nodo-plus/config"
)

type fakeMailer struct {
	sent []Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, email Email) error {
	m.sent = append(m.sent, email)
	return m.err
}

func TestContactRequestEmail(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewNotificationService(mailer, &config.Config{})
	n.ContactRequest(context.Background(), "sales@acme.test", "Mate <Fácil>", "Hola\nquiero una demo", "rector@colegio.test")

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails", len(mailer.sent))
	}
	e := mailer.sent[0]
	if e.To != "sales@acme.test" || e.ReplyTo != "rector@colegio.test" {
		t.Fatalf("addresses %+v", e)
	}
	if strings.Contains(e.HTML, "<Fácil>") || !strings.Contains(e.HTML, "&lt;Fácil&gt;") {
		t.Fatalf("html not escaped: %s", e.HTML)
	}
	if !strings.Contains(e.HTML, "Hola<br>quiero una demo") {
		t.Fatalf("line breaks not kept: %s", e.HTML)
	}
}

func TestNotificationsNeverFail(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("ses throttled")}
	n := NewNotificationService(mailer, &config.Config{})

	n.SolutionApproved(context.Background(), "", "Sin destinatario")
	n.SolutionSubmitted(context.Background(), "Sin administrador")
	if len(mailer.sent) != 0 {
		t.Fatalf("emails without recipient must be skipped")
	}
	n.SolutionRejected(context.Background(), "a@b.co", "X", "")
	if len(mailer.sent) != 1 || !strings.Contains(mailer.sent[0].HTML, "Motivo: -") {
		t.Fatalf("rejection email %+v", mailer.sent)
	}

	n = NewNotificationService(mailer, &config.Config{Mail: config.Mail{AdminNotify: "ops@nodo.test"}})
	n.SolutionSubmitted(context.Background(), "Nueva")
	if mailer.sent[len(mailer.sent)-1].To != "ops@nodo.test" {
		t.Fatalf("admin notification not sent")
	}
}

func TestReplyAddress(t *testing.T) {
	cases := map[string]string{
		"rector@colegio.test":   "rector@colegio.test",
		" rector@colegio.test ": "rector@colegio.test",
		"llamar al 3001234567":  "",
		"a@b@c":                 "",
	}
	for in, want := range cases {
		if got := replyAddress(in); got != want {
			t.Errorf("replyAddress(%q) = %q, want %q", in, got, want)
		}
	}
}
