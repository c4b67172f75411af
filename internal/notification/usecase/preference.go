package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

// PreferenceList returns the full category x channel matrix for the
// caller. Missing rows surface as enabled; mandatory categories are always
// enabled regardless of stored rows.
func (s *Usecase) PreferenceList(ctx context.Context) ([]entity.Preference, error) {
	ctx, span := s.startSpan(ctx, "PreferenceList")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.repoDB.ListCategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list categories", "error", err)
		return nil, goerror.NewServer(err)
	}

	prefs, err := s.repoDB.ListPreferences(ctx, clm.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list preferences", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	stored := make(map[int64]map[entity.Channel]bool, len(prefs))
	for _, p := range prefs {
		if _, ok := stored[p.CategoryID]; !ok {
			stored[p.CategoryID] = map[entity.Channel]bool{}
		}
		stored[p.CategoryID][p.Channel] = p.IsEnabled
	}

	channels := []entity.Channel{entity.ChannelInApp, entity.ChannelEmail}

	items := make([]entity.Preference, 0, len(categories)*len(channels))
	for _, category := range categories {
		for _, ch := range channels {
			enabled := true
			if v, ok := stored[category.ID][ch]; ok {
				enabled = v
			}
			if category.IsMandatory {
				enabled = true
			}
			items = append(items, entity.Preference{
				CategoryID: category.ID,
				Channel:    ch,
				IsEnabled:  enabled,
			})
		}
	}

	return items, nil
}

type PreferenceUpdateInput struct {
	Preferences []PreferenceInput `validate:"required,min=1,dive"`
}

type PreferenceInput struct {
	CategoryID int64  `validate:"required,gt=0"`
	Channel    string `validate:"required,lowercase,oneof=in_app email"`
	IsEnabled  bool
}

func (s *Usecase) PreferenceUpdate(ctx context.Context, in PreferenceUpdateInput) error {
	ctx, span := s.startSpan(ctx, "PreferenceUpdate")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	categories, err := s.repoDB.ListCategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list categories", "error", err)
		return goerror.NewServer(err)
	}

	categoryMap := make(map[int64]entity.Category, len(categories))
	for _, category := range categories {
		categoryMap[category.ID] = category
	}

	prefs := make([]entity.Preference, 0, len(in.Preferences))
	for _, p := range in.Preferences {
		category, ok := categoryMap[p.CategoryID]
		if !ok {
			return goerror.NewBusiness("Category not found: "+strconv.FormatInt(p.CategoryID, 10), goerror.CodeNotFound)
		}
		if category.IsMandatory && !p.IsEnabled {
			return goerror.NewBusiness("Mandatory category cannot be muted: "+category.Name, goerror.CodeInvalidInput)
		}

		channel := entity.ChannelFromString(p.Channel)
		if channel == entity.ChannelUnknown {
			return goerror.NewBusiness("Channel is not supported", goerror.CodeInvalidInput)
		}

		prefs = append(prefs, entity.Preference{
			CategoryID: p.CategoryID,
			Channel:    channel,
			IsEnabled:  p.IsEnabled,
		})
	}

	if err := s.repoDB.UpsertPreferences(ctx, clm.AccountID, prefs); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert preferences", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
