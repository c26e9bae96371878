package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jobsentinel/jobsentinel/internal/alert"
	"github.com/jobsentinel/jobsentinel/internal/jobs"
	"github.com/jobsentinel/jobsentinel/internal/matching"
)

type stubSender struct {
	err      error
	payloads []Payload
}

func (s *stubSender) Send(_ context.Context, p Payload) error {
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, p)
	return nil
}

func testAlert() *alert.Alert {
	return &alert.Alert{
		ID:     "a1",
		Name:   "go jobs",
		Method: alert.MethodEmail,
		Target: "user@example.com",
	}
}

func testMatches() []*matching.Match {
	return []*matching.Match{
		{
			Job:     &jobs.Posting{ID: "1", Title: "Go Developer", Company: "Acme", URL: "https://example.com/1"},
			Score:   80,
			Reasons: []string{"go", "it"},
		},
		{
			Job:   &jobs.Posting{ID: "2", Title: "Backend Engineer"},
			Score: 45,
		},
	}
}

func TestDispatchZeroMatchesIsNoop(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(sender, zap.NewNop())

	outcome := d.Dispatch(context.Background(), testAlert(), nil)
	if outcome.Status != StatusSkipped {
		t.Fatalf("expected skipped status, got %s", outcome.Status)
	}

	if len(sender.payloads) != 0 {
		t.Fatalf("expected no payloads, got %d", len(sender.payloads))
	}
}

func TestDispatchSendsDigest(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(sender, zap.NewNop())

	outcome := d.Dispatch(context.Background(), testAlert(), testMatches())
	if outcome.Status != StatusSent {
		t.Fatalf("expected sent status, got %s", outcome.Status)
	}

	if len(sender.payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(sender.payloads))
	}

	p := sender.payloads[0]
	if p.Channel != "email" || p.Target != "user@example.com" {
		t.Fatalf("unexpected recipient: %+v", p)
	}

	if !strings.Contains(p.Content, "Go Developer") || !strings.Contains(p.Content, "Acme") {
		t.Fatalf("digest missing match details: %s", p.Content)
	}

	if !strings.Contains(p.Subject, "2 new matches") {
		t.Fatalf("unexpected subject: %s", p.Subject)
	}
}

func TestDispatchRecordsFailure(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	sender := &stubSender{err: errors.New("smtp unreachable")}
	d := NewDispatcher(sender, zap.New(core))

	outcome := d.Dispatch(context.Background(), testAlert(), testMatches())
	if outcome.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", outcome.Status)
	}

	if outcome.Error == "" {
		t.Fatalf("expected error to be recorded")
	}

	if observed.FilterMessage("notification dispatch failed").Len() != 1 {
		t.Fatalf("expected dispatch failure to be logged")
	}
}

func TestDigestSubjectSingular(t *testing.T) {
	subject := DigestSubject(testAlert(), testMatches()[:1])
	if !strings.Contains(subject, "1 new match") || strings.Contains(subject, "matches") {
		t.Fatalf("unexpected subject: %s", subject)
	}
}

func TestDigestBodyListsAllMatches(t *testing.T) {
	body := DigestBody(testAlert(), testMatches())

	if !strings.Contains(body, "1. Go Developer at Acme") {
		t.Fatalf("missing first entry: %s", body)
	}

	if !strings.Contains(body, "2. Backend Engineer") {
		t.Fatalf("missing second entry: %s", body)
	}

	if !strings.Contains(body, "https://example.com/1") {
		t.Fatalf("missing url: %s", body)
	}
}
