package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aruna-labs/identra/internal/notification/entity"
)

func TestConsumeUserRegisteredEmailsWelcome(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID:     1,
		Identifier: "user@example.com",
		FullName:   "Test User",
	})
	if err != nil {
		t.Fatalf("ConsumeUserRegistered: %v", err)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if msg.To[0] != "user@example.com" {
		t.Errorf("to = %q", msg.To[0])
	}
	if msg.Subject != "Welcome to Identra" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTMLBody, "Test User") {
		t.Errorf("body = %q", msg.HTMLBody)
	}

	// One feed entry, tied to the delivery log.
	if len(f.repo.feed) != 1 {
		t.Fatalf("feed rows = %d, want 1", len(f.repo.feed))
	}
	if len(f.repo.logs) != 1 {
		t.Fatalf("delivery logs = %d, want 1", len(f.repo.logs))
	}
	for _, log := range f.repo.logs {
		if log.status != entity.DeliveryStatusSent {
			t.Errorf("log status = %v, want sent", log.status)
		}
	}
}

func TestConsumeUserRegisteredPhoneGetsFeedOnly(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID:     1,
		Identifier: "+15551234567",
		FullName:   "Test User",
	})
	if err != nil {
		t.Fatalf("ConsumeUserRegistered: %v", err)
	}

	if len(f.mail.sent) != 0 {
		t.Errorf("sent %d mails, want 0", len(f.mail.sent))
	}
	if len(f.repo.feed) != 1 {
		t.Errorf("feed rows = %d, want 1", len(f.repo.feed))
	}
}

func TestConsumeUserRegisteredInvalidPayloadDropped(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	// Dropped, not retried: returning nil acks the message.
	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID: 0, Identifier: "", FullName: "",
	})
	if err != nil {
		t.Fatalf("invalid payload should be dropped, got %v", err)
	}
	if len(f.repo.feed) != 0 || len(f.mail.sent) != 0 {
		t.Error("invalid payload produced side effects")
	}
}

func TestConsumeRetriesMailThenRecordsSent(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()
	f.mail.failNext = 2 // exhausted by in-process retries

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID:     1,
		Identifier: "user@example.com",
		FullName:   "Test User",
	})
	if err != nil {
		t.Fatalf("ConsumeUserRegistered: %v", err)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d mails, want 1 after retries", len(f.mail.sent))
	}
}

func TestConsumeMailFailureRecordsFailedLog(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()
	f.mail.failNext = 5 // more than the retry budget

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID:     1,
		Identifier: "user@example.com",
		FullName:   "Test User",
	})
	if err != nil {
		t.Fatalf("delivery failure must not propagate: %v", err)
	}

	if len(f.mail.sent) != 0 {
		t.Fatalf("sent %d mails, want 0", len(f.mail.sent))
	}
	for _, log := range f.repo.logs {
		if log.status != entity.DeliveryStatusFailed {
			t.Errorf("log status = %v, want failed", log.status)
		}
		if log.nextRetry == nil {
			t.Error("next retry not scheduled")
		} else if got := log.nextRetry.Sub(f.clk.Now()); got != 2*time.Minute {
			t.Errorf("next retry in %v, want 2m", got)
		}
	}
}

func TestConsumePasswordChangedEmailsOwner(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.ConsumePasswordChanged(context.Background(), ConsumePasswordChangedInput{
		UserID:     1,
		Identifier: "user@example.com",
	})
	if err != nil {
		t.Fatalf("ConsumePasswordChanged: %v", err)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.mail.sent))
	}
	if !strings.Contains(f.mail.sent[0].HTMLBody, "2026-03-01") {
		t.Errorf("body = %q", f.mail.sent[0].HTMLBody)
	}
}

func TestConsumeCredentialChangedWarnsOldAddressWithMaskedNew(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.ConsumeCredentialChanged(context.Background(), ConsumeCredentialChangedInput{
		UserID:        1,
		OldIdentifier: "old@example.com",
		NewIdentifier: "brandnew@example.com",
	})
	if err != nil {
		t.Fatalf("ConsumeCredentialChanged: %v", err)
	}

	if len(f.mail.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if msg.To[0] != "old@example.com" {
		t.Errorf("notice went to %q, want the old address", msg.To[0])
	}
	if strings.Contains(msg.HTMLBody, "brandnew@example.com") {
		t.Error("body leaks the unmasked new identifier")
	}
	if !strings.Contains(msg.HTMLBody, "b***w@example.com") {
		t.Errorf("body = %q, want masked identifier", msg.HTMLBody)
	}
}

func TestConsumeMissingTemplateSkipsQuietly(t *testing.T) {
	f := newFixture(t)
	// No templates seeded at all.

	err := f.uc.ConsumePasswordChanged(context.Background(), ConsumePasswordChangedInput{
		UserID:     1,
		Identifier: "user@example.com",
	})
	if err != nil {
		t.Fatalf("ConsumePasswordChanged: %v", err)
	}
	if len(f.repo.feed) != 0 || len(f.mail.sent) != 0 {
		t.Error("missing template should drop the notice")
	}
}

func TestConsumeRespectsMutedEmailPreference(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()
	f.repo.prefs[prefKey{1, 1, entity.ChannelEmail}] = false // mute product emails

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID:     1,
		Identifier: "user@example.com",
		FullName:   "Test User",
	})
	if err != nil {
		t.Fatalf("ConsumeUserRegistered: %v", err)
	}
	if len(f.mail.sent) != 0 {
		t.Errorf("sent %d mails to a muted channel", len(f.mail.sent))
	}
}
