package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/mail"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

var errBoom = goerror.NewServer(context.DeadlineExceeded)

type prefKey struct {
	userID     int64
	categoryID int64
	channel    entity.Channel
}

type deliveryLog struct {
	feedItemID int64
	channel    entity.Channel
	status     entity.DeliveryStatus
	nextRetry  *time.Time
}

type feedRow struct {
	entity.FeedItem
	userID  int64
	deleted bool
}

type fakeRepo struct {
	templates  map[string]entity.Template
	categories []entity.Category
	feed       map[int64]*feedRow
	logs       map[int64]*deliveryLog
	prefs      map[prefKey]bool
	nextLogID  int64
	now        time.Time

	failAll bool
}

func newFakeRepo(now time.Time) *fakeRepo {
	return &fakeRepo{
		templates: map[string]entity.Template{},
		feed:      map[int64]*feedRow{},
		logs:      map[int64]*deliveryLog{},
		prefs:     map[prefKey]bool{},
		now:       now,
	}
}

func (f *fakeRepo) addTemplate(tpl entity.Template) {
	f.templates[tpl.TriggerKey.String()+"/"+tpl.Channel.String()] = tpl
}

func (f *fakeRepo) GetTemplate(_ context.Context, tk entity.TriggerKey, ch entity.Channel) (*entity.Template, error) {
	if f.failAll {
		return nil, errBoom
	}
	tpl, ok := f.templates[tk.String()+"/"+ch.String()]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &tpl, nil
}

func (f *fakeRepo) ListCategories(_ context.Context) ([]entity.Category, error) {
	if f.failAll {
		return nil, errBoom
	}
	return f.categories, nil
}

func (f *fakeRepo) CreateFeedItem(_ context.Context, item entity.CreateFeedItem) error {
	if f.failAll {
		return errBoom
	}
	f.feed[item.ID] = &feedRow{
		FeedItem: entity.FeedItem{
			ID:         item.ID,
			CategoryID: item.CategoryID,
			TriggerKey: item.TriggerKey,
			Data:       item.Data,
			Metadata:   item.Metadata,
			CreatedAt:  f.now,
		},
		userID: item.UserID,
	}
	return nil
}

func (f *fakeRepo) CreateFeedItemWithDeliveryLog(ctx context.Context, item entity.CreateFeedItem, dl entity.CreateDeliveryLog) (int64, error) {
	if err := f.CreateFeedItem(ctx, item); err != nil {
		return 0, err
	}
	f.nextLogID++
	f.logs[f.nextLogID] = &deliveryLog{feedItemID: dl.FeedItemID, channel: dl.Channel, status: dl.Status}
	return f.nextLogID, nil
}

func (f *fakeRepo) UpdateDeliveryLog(_ context.Context, up entity.UpdateDeliveryLog) error {
	if f.failAll {
		return errBoom
	}
	log, ok := f.logs[up.ID]
	if !ok {
		return goerror.ErrNotFound
	}
	log.status = up.Status
	log.nextRetry = up.NextRetryAt
	return nil
}

func (f *fakeRepo) ListFeedItems(_ context.Context, userID int64, status entity.FeedStatus, limit, offset int32) ([]entity.FeedItem, error) {
	if f.failAll {
		return nil, errBoom
	}
	var out []entity.FeedItem
	for _, row := range f.feed {
		if row.userID != userID || row.deleted {
			continue
		}
		if status == entity.FeedStatusUnread && row.ReadAt != nil {
			continue
		}
		if status == entity.FeedStatusRead && row.ReadAt == nil {
			continue
		}
		out = append(out, row.FeedItem)
	}
	_ = limit
	_ = offset
	return out, nil
}

func (f *fakeRepo) CountUnreadFeedItems(_ context.Context, userID int64) (int64, error) {
	if f.failAll {
		return 0, errBoom
	}
	var n int64
	for _, row := range f.feed {
		if row.userID == userID && !row.deleted && row.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) MarkFeedItemRead(_ context.Context, userID, itemID int64) (bool, error) {
	if f.failAll {
		return false, errBoom
	}
	row, ok := f.feed[itemID]
	if !ok || row.userID != userID || row.deleted || row.ReadAt != nil {
		return false, nil
	}
	now := f.now
	row.ReadAt = &now
	return true, nil
}

func (f *fakeRepo) MarkFeedItemsReadAll(_ context.Context, userID int64) (int64, error) {
	if f.failAll {
		return 0, errBoom
	}
	var n int64
	now := f.now
	for _, row := range f.feed {
		if row.userID == userID && !row.deleted && row.ReadAt == nil {
			row.ReadAt = &now
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) SoftDeleteFeedItem(_ context.Context, userID, itemID int64) (bool, error) {
	if f.failAll {
		return false, errBoom
	}
	row, ok := f.feed[itemID]
	if !ok || row.userID != userID || row.deleted {
		return false, nil
	}
	row.deleted = true
	return true, nil
}

func (f *fakeRepo) ListPreferences(_ context.Context, userID int64) ([]entity.Preference, error) {
	if f.failAll {
		return nil, errBoom
	}
	var out []entity.Preference
	for k, enabled := range f.prefs {
		if k.userID == userID {
			out = append(out, entity.Preference{CategoryID: k.categoryID, Channel: k.channel, IsEnabled: enabled})
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertPreferences(_ context.Context, userID int64, prefs []entity.Preference) error {
	if f.failAll {
		return errBoom
	}
	for _, p := range prefs {
		f.prefs[prefKey{userID, p.CategoryID, p.Channel}] = p.IsEnabled
	}
	return nil
}

func (f *fakeRepo) ChannelEnabled(_ context.Context, userID, categoryID int64, ch entity.Channel) (bool, error) {
	if f.failAll {
		return false, errBoom
	}
	enabled, ok := f.prefs[prefKey{userID, categoryID, ch}]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

type fakeMail struct {
	sent     []mail.Message
	failNext int
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if f.failNext > 0 {
		f.failNext--
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, msg)
	return nil
}

type seqNumberID struct{ n int64 }

func (s *seqNumberID) Generate() int64 {
	s.n++
	return s.n
}

const testConfigYAML = `
app:
  name: Identra
  support_email: support@identra.test
modules:
  notification:
    redeliver_after_minutes: 2
`

type fixture struct {
	uc   *Usecase
	repo *fakeRepo
	mail *fakeMail
	clk  *clock.Static
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	repo := newFakeRepo(clk.Now())
	mailer := &fakeMail{}

	uc := New(Dependency{
		RepoDB:     repo,
		Config:     cfg,
		UID:        &seqNumberID{n: 100},
		Clock:      clk,
		Validator:  v,
		RepoMail:   mailer,
		Instrument: instrument.NewNoop(),
	})

	return &fixture{uc: uc, repo: repo, mail: mailer, clk: clk}
}

// seedTemplates installs the welcome and security templates used by most
// tests: category 1 (product, optional) and category 2 (security, mandatory).
func (f *fixture) seedTemplates() {
	f.repo.categories = []entity.Category{
		{ID: 1, Name: "product", Description: "Product updates"},
		{ID: 2, Name: "security", Description: "Security notices", IsMandatory: true},
	}
	f.repo.addTemplate(entity.Template{ID: 10, TriggerKey: entity.TriggerKeyUserWelcome, CategoryID: 1, Channel: entity.ChannelInApp, Body: "Welcome {{.full_name}}"})
	f.repo.addTemplate(entity.Template{ID: 11, TriggerKey: entity.TriggerKeyUserWelcome, CategoryID: 1, Channel: entity.ChannelEmail, Subject: "Welcome to {{.app_name}}", Body: "<p>Hello {{.full_name}}</p>"})
	f.repo.addTemplate(entity.Template{ID: 12, TriggerKey: entity.TriggerKeyPasswordChanged, CategoryID: 2, Channel: entity.ChannelInApp, Body: "Password changed"})
	f.repo.addTemplate(entity.Template{ID: 13, TriggerKey: entity.TriggerKeyPasswordChanged, CategoryID: 2, Channel: entity.ChannelEmail, Subject: "Password changed", Body: "<p>Changed at {{.changed_at}}</p>"})
	f.repo.addTemplate(entity.Template{ID: 14, TriggerKey: entity.TriggerKeyCredentialChanged, CategoryID: 2, Channel: entity.ChannelInApp, Body: "Sign-in identifier changed"})
	f.repo.addTemplate(entity.Template{ID: 15, TriggerKey: entity.TriggerKeyCredentialChanged, CategoryID: 2, Channel: entity.ChannelEmail, Subject: "Sign-in identifier changed", Body: "<p>New identifier {{.new_identifier}}</p>"})
}

func authCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: userID})
}

func wantCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error with code %v, got nil", code)
	}
	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if ge.Code() != code {
		t.Fatalf("error code = %v, want %v (msg %q)", ge.Code(), code, ge.Msg())
	}
}
