package services

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	msgs []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.msgs = append(d.msgs, m...)
	return d.err
}

func TestEmailService_SendTaskEmail(t *testing.T) {
	d := &fakeDialer{}
	svc := &emailService{dialer: d, from: "noreply@example.com"}

	if err := svc.SendTaskEmail("a@example.com", "Task accepted: Report", "<b>ok</b>"); err != nil {
		t.Fatal(err)
	}
	if len(d.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(d.msgs))
	}
	m := d.msgs[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "a@example.com" {
		t.Fatalf("to = %v", got)
	}
	if got := m.GetHeader("Subject"); len(got) != 1 || got[0] != "Task accepted: Report" {
		t.Fatalf("subject = %v", got)
	}

	d.err = errors.New("smtp down")
	err := svc.SendTaskEmail("a@example.com", "s", "b")
	if err == nil || !strings.Contains(err.Error(), "a@example.com") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
