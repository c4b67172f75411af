package usecase

import (
	"context"
	"testing"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

func (f *fixture) seedFeed(t *testing.T, userID int64, n int) []int64 {
	t.Helper()

	ids := make([]int64, 0, n)
	for range n {
		id := int64(len(f.repo.feed) + 1)
		err := f.repo.CreateFeedItem(context.Background(), entity.CreateFeedItem{
			ID:         id,
			UserID:     userID,
			CategoryID: 1,
			TriggerKey: entity.TriggerKeyUserWelcome,
			Data:       valueobject.JSONMap{},
			Metadata:   valueobject.JSONMap{},
		})
		if err != nil {
			t.Fatalf("seed feed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestNotificationListWithUnreadCount(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, 1, 3)
	f.seedFeed(t, 2, 1) // another user's feed stays invisible

	out, err := f.uc.NotificationList(authCtx(1), NotificationListInput{})
	if err != nil {
		t.Fatalf("NotificationList: %v", err)
	}
	if len(out.Items) != 3 {
		t.Errorf("items = %d, want 3", len(out.Items))
	}
	if out.UnreadCount != 3 {
		t.Errorf("unread = %d, want 3", out.UnreadCount)
	}
}

func TestNotificationListRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.NotificationList(context.Background(), NotificationListInput{})
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestNotificationListRejectsBadStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.NotificationList(authCtx(1), NotificationListInput{Status: "bogus"})
	wantCode(t, err, goerror.CodeInvalidInput)
}

func TestNotificationMarkReadOnce(t *testing.T) {
	f := newFixture(t)
	ids := f.seedFeed(t, 1, 1)

	if err := f.uc.NotificationMarkRead(authCtx(1), NotificationMarkReadInput{ID: ids[0]}); err != nil {
		t.Fatalf("NotificationMarkRead: %v", err)
	}

	out, err := f.uc.NotificationList(authCtx(1), NotificationListInput{Status: "unread"})
	if err != nil {
		t.Fatalf("NotificationList: %v", err)
	}
	if len(out.Items) != 0 || out.UnreadCount != 0 {
		t.Errorf("unread after mark = %d items, count %d", len(out.Items), out.UnreadCount)
	}

	// Already read: treated as missing.
	err = f.uc.NotificationMarkRead(authCtx(1), NotificationMarkReadInput{ID: ids[0]})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestNotificationMarkReadOtherUsersItem(t *testing.T) {
	f := newFixture(t)
	ids := f.seedFeed(t, 2, 1)

	err := f.uc.NotificationMarkRead(authCtx(1), NotificationMarkReadInput{ID: ids[0]})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestNotificationMarkAllRead(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, 1, 3)

	if err := f.uc.NotificationMarkAllRead(authCtx(1)); err != nil {
		t.Fatalf("NotificationMarkAllRead: %v", err)
	}

	out, err := f.uc.NotificationList(authCtx(1), NotificationListInput{})
	if err != nil {
		t.Fatalf("NotificationList: %v", err)
	}
	if out.UnreadCount != 0 {
		t.Errorf("unread = %d, want 0", out.UnreadCount)
	}
}

func TestNotificationDeleteHidesItem(t *testing.T) {
	f := newFixture(t)
	ids := f.seedFeed(t, 1, 2)

	if err := f.uc.NotificationDelete(authCtx(1), NotificationDeleteInput{ID: ids[0]}); err != nil {
		t.Fatalf("NotificationDelete: %v", err)
	}

	out, err := f.uc.NotificationList(authCtx(1), NotificationListInput{})
	if err != nil {
		t.Fatalf("NotificationList: %v", err)
	}
	if len(out.Items) != 1 {
		t.Errorf("items = %d, want 1", len(out.Items))
	}

	err = f.uc.NotificationDelete(authCtx(1), NotificationDeleteInput{ID: ids[0]})
	wantCode(t, err, goerror.CodeNotFound)
}
