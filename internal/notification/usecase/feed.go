package usecase

import (
	"context"
	"log/slog"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type NotificationListInput struct {
	Status string `validate:"omitempty,oneof=all unread read"`
	Limit  int32  `validate:"omitempty,gte=1,lte=100"`
	Offset int32  `validate:"omitempty,gte=0"`
}

type NotificationListOutput struct {
	Items       []entity.FeedItem
	UnreadCount int64
}

func (s *Usecase) NotificationList(ctx context.Context, in NotificationListInput) (*NotificationListOutput, error) {
	ctx, span := s.startSpan(ctx, "NotificationList")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = string(entity.FeedStatusAll)
	}
	if in.Limit == 0 {
		in.Limit = 20
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	items, err := s.repoDB.ListFeedItems(ctx, clm.AccountID, entity.FeedStatus(in.Status), in.Limit, in.Offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list feed items", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	unread, err := s.repoDB.CountUnreadFeedItems(ctx, clm.AccountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count unread feed items", "user_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &NotificationListOutput{Items: items, UnreadCount: unread}, nil
}

type NotificationMarkReadInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) NotificationMarkRead(ctx context.Context, in NotificationMarkReadInput) error {
	ctx, span := s.startSpan(ctx, "NotificationMarkRead")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	updated, err := s.repoDB.MarkFeedItemRead(ctx, clm.AccountID, in.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark feed item read", "user_id", clm.AccountID, "notification_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !updated {
		return goerror.NewBusiness("Notification not found", goerror.CodeNotFound)
	}

	return nil
}

func (s *Usecase) NotificationMarkAllRead(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "NotificationMarkAllRead")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if _, err := s.repoDB.MarkFeedItemsReadAll(ctx, clm.AccountID); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark all feed items read", "user_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

type NotificationDeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) NotificationDelete(ctx context.Context, in NotificationDeleteInput) error {
	ctx, span := s.startSpan(ctx, "NotificationDelete")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	deleted, err := s.repoDB.SoftDeleteFeedItem(ctx, clm.AccountID, in.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete feed item", "user_id", clm.AccountID, "notification_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !deleted {
		return goerror.NewBusiness("Notification not found", goerror.CodeNotFound)
	}

	return nil
}
