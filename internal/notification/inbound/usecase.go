package inbound

import (
	"context"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumeUserRegistered(ctx context.Context, in usecase.ConsumeUserRegisteredInput) error
	ConsumePasswordChanged(ctx context.Context, in usecase.ConsumePasswordChangedInput) error
	ConsumeCredentialChanged(ctx context.Context, in usecase.ConsumeCredentialChangedInput) error
}

type uc interface {
	ucConsumer

	NotificationList(ctx context.Context, in usecase.NotificationListInput) (*usecase.NotificationListOutput, error)
	NotificationMarkRead(ctx context.Context, in usecase.NotificationMarkReadInput) error
	NotificationMarkAllRead(ctx context.Context) error
	NotificationDelete(ctx context.Context, in usecase.NotificationDeleteInput) error

	PreferenceList(ctx context.Context) ([]entity.Preference, error)
	PreferenceUpdate(ctx context.Context, in usecase.PreferenceUpdateInput) error
}
