package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/model"
)

func TestPreferences_GetDefaultsWhenNeverSet(t *testing.T) {
	repo := newFakeUserRepo()
	user := repo.addUser(model.User{Email: "p@example.com", PasswordHash: "h"})
	svc := NewPreferenceService(repo, discardLogger())

	got, err := svc.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, model.DefaultPreferences()) {
		t.Errorf("Get() = %+v, want %+v", got, model.DefaultPreferences())
	}

	stored, err := svc.Stored(context.Background(), user.ID)
	if err != nil || stored != nil {
		t.Errorf("Stored() = %+v, %v; want nil, nil", stored, err)
	}
}

func TestPreferences_SetThenGet(t *testing.T) {
	repo := newFakeUserRepo()
	user := repo.addUser(model.User{Email: "p@example.com", PasswordHash: "h"})
	svc := NewPreferenceService(repo, discardLogger())

	want := model.Preferences{Categories: []string{"technology"}, Sources: []string{}, Country: "us"}
	saved, err := svc.Set(context.Background(), user.ID, want)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !reflect.DeepEqual(saved, want) {
		t.Errorf("Set() = %+v, want %+v", saved, want)
	}

	got, err := svc.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestPreferences_SetIsFullReplace(t *testing.T) {
	repo := newFakeUserRepo()
	user := repo.addUser(model.User{Email: "p@example.com", PasswordHash: "h"})
	svc := NewPreferenceService(repo, discardLogger())

	if _, err := svc.Set(context.Background(), user.ID, model.Preferences{
		Categories: []string{"sports"}, Sources: []string{"espn"}, Country: "ca",
	}); err != nil {
		t.Fatalf("Set() first: %v", err)
	}

	saved, err := svc.Set(context.Background(), user.ID, model.Preferences{Categories: []string{"science"}})
	if err != nil {
		t.Fatalf("Set() second: %v", err)
	}

	want := model.Preferences{Categories: []string{"science"}, Sources: []string{}, Country: "us"}
	if !reflect.DeepEqual(saved, want) {
		t.Errorf("Set() = %+v, want %+v (no merge with the previous set)", saved, want)
	}
}

func TestPreferences_UnknownUser(t *testing.T) {
	svc := NewPreferenceService(newFakeUserRepo(), discardLogger())

	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Set(context.Background(), "ghost", model.Preferences{}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Set() error = %v, want ErrNotFound", err)
	}
}
