package usecase

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/config"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
	"github.com/aruna-labs/identra/internal/pkg/jwt"
	"github.com/aruna-labs/identra/internal/pkg/mail"
	"github.com/aruna-labs/identra/internal/pkg/uid"
	"github.com/aruna-labs/identra/internal/pkg/validator"
)

type repoDB interface {
	GetTemplate(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) (*entity.Template, error)
	ListCategories(ctx context.Context) ([]entity.Category, error)

	CreateFeedItem(ctx context.Context, item entity.CreateFeedItem) error
	CreateFeedItemWithDeliveryLog(ctx context.Context, item entity.CreateFeedItem, dl entity.CreateDeliveryLog) (int64, error)
	UpdateDeliveryLog(ctx context.Context, up entity.UpdateDeliveryLog) error

	ListFeedItems(ctx context.Context, userID int64, status entity.FeedStatus, limit, offset int32) ([]entity.FeedItem, error)
	CountUnreadFeedItems(ctx context.Context, userID int64) (int64, error)
	MarkFeedItemRead(ctx context.Context, userID, itemID int64) (bool, error)
	MarkFeedItemsReadAll(ctx context.Context, userID int64) (int64, error)
	SoftDeleteFeedItem(ctx context.Context, userID, itemID int64) (bool, error)

	ListPreferences(ctx context.Context, userID int64) ([]entity.Preference, error)
	UpsertPreferences(ctx context.Context, userID int64, prefs []entity.Preference) error
	ChannelEnabled(ctx context.Context, userID, categoryID int64, ch entity.Channel) (bool, error)
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Usecase consumes identity lifecycle events into user feeds and email
// notices, and serves the feed and preference endpoints.
type Usecase struct {
	repoDB    repoDB
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	repoMail  repoMail
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Config     config.Config
	UID        uid.NumberID
	Clock      clock.Clocker
	Validator  validator.Validator
	RepoMail   repoMail
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		repoMail:  dep.RepoMail,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) renderTemplate(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"app_name":      s.cfg.GetString("app.name"),
		"support_email": s.cfg.GetString("app.support_email"),
		"year":          s.clock.Now().Format("2006"),
	}
}

// getTemplate returns nil when no copy is configured for the
// trigger/channel pair; callers skip the notice quietly.
func (s *Usecase) getTemplate(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) *entity.Template {
	tpl, err := s.repoDB.GetTemplate(ctx, tk, ch)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "notification template not found", "trigger_key", tk, "channel", ch.String())
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get template", "trigger_key", tk, "channel", ch.String(), "error", err)
		return nil
	}

	return tpl
}
