package usecase

import (
	"context"
	"testing"

	"github.com/aruna-labs/identra/internal/notification/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func TestPreferenceListDefaultsToEnabled(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	items, err := f.uc.PreferenceList(authCtx(1))
	if err != nil {
		t.Fatalf("PreferenceList: %v", err)
	}

	// Two categories, two channels each.
	if len(items) != 4 {
		t.Fatalf("items = %d, want 4", len(items))
	}
	for _, item := range items {
		if !item.IsEnabled {
			t.Errorf("category %d channel %s disabled by default", item.CategoryID, item.Channel)
		}
	}
}

func TestPreferenceListReflectsStoredRows(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()
	f.repo.prefs[prefKey{1, 1, entity.ChannelEmail}] = false

	items, err := f.uc.PreferenceList(authCtx(1))
	if err != nil {
		t.Fatalf("PreferenceList: %v", err)
	}

	for _, item := range items {
		want := true
		if item.CategoryID == 1 && item.Channel == entity.ChannelEmail {
			want = false
		}
		if item.IsEnabled != want {
			t.Errorf("category %d channel %s enabled = %v, want %v", item.CategoryID, item.Channel, item.IsEnabled, want)
		}
	}
}

func TestPreferenceListMandatoryOverridesStoredMute(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()
	// Row slipped in for a mandatory category; the matrix still reports enabled.
	f.repo.prefs[prefKey{1, 2, entity.ChannelEmail}] = false

	items, err := f.uc.PreferenceList(authCtx(1))
	if err != nil {
		t.Fatalf("PreferenceList: %v", err)
	}

	for _, item := range items {
		if item.CategoryID == 2 && !item.IsEnabled {
			t.Errorf("mandatory category reported muted on channel %s", item.Channel)
		}
	}
}

func TestPreferenceListRequiresAuth(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.PreferenceList(context.Background())
	wantCode(t, err, goerror.CodeUnauthorized)
}

func TestPreferenceUpdateStoresRows(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.PreferenceUpdate(authCtx(1), PreferenceUpdateInput{
		Preferences: []PreferenceInput{
			{CategoryID: 1, Channel: "email", IsEnabled: false},
			{CategoryID: 1, Channel: "in_app", IsEnabled: true},
		},
	})
	if err != nil {
		t.Fatalf("PreferenceUpdate: %v", err)
	}

	if f.repo.prefs[prefKey{1, 1, entity.ChannelEmail}] {
		t.Error("email preference not muted")
	}
	if !f.repo.prefs[prefKey{1, 1, entity.ChannelInApp}] {
		t.Error("in_app preference not enabled")
	}
}

func TestPreferenceUpdateRejectsMutingMandatory(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.PreferenceUpdate(authCtx(1), PreferenceUpdateInput{
		Preferences: []PreferenceInput{{CategoryID: 2, Channel: "email", IsEnabled: false}},
	})
	wantCode(t, err, goerror.CodeInvalidInput)

	if len(f.repo.prefs) != 0 {
		t.Errorf("prefs stored = %d, want 0", len(f.repo.prefs))
	}
}

func TestPreferenceUpdateUnknownCategory(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.PreferenceUpdate(authCtx(1), PreferenceUpdateInput{
		Preferences: []PreferenceInput{{CategoryID: 99, Channel: "email", IsEnabled: true}},
	})
	wantCode(t, err, goerror.CodeNotFound)
}

func TestPreferenceUpdateRejectsBadChannel(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()

	err := f.uc.PreferenceUpdate(authCtx(1), PreferenceUpdateInput{
		Preferences: []PreferenceInput{{CategoryID: 1, Channel: "pigeon", IsEnabled: true}},
	})
	wantCode(t, err, goerror.CodeInvalidInput)
}

func TestPreferenceUpdateRepoFailure(t *testing.T) {
	f := newFixture(t)
	f.seedTemplates()
	f.repo.failAll = true

	err := f.uc.PreferenceUpdate(authCtx(1), PreferenceUpdateInput{
		Preferences: []PreferenceInput{{CategoryID: 1, Channel: "email", IsEnabled: true}},
	})
	wantCode(t, err, goerror.CodeInternal)
}
