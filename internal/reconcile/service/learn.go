package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"namerecon-service/internal/reconcile/model"
)

var (
	// ErrMappingNotFound — связки для метки нет
	ErrMappingNotFound = errors.New("learned mapping not found")
	// ErrInvalidMapping — пустая метка или пустой id
	ErrInvalidMapping = errors.New("invalid learned mapping")
	// ErrUnknownMaster — id не найден в справочнике
	ErrUnknownMaster = errors.New("unknown master record")
)

// MappingStore — постоянный кэш выученных связок (ключ — точная исходная метка).
// Put для существующей метки перезаписывает её (last write wins).
type MappingStore interface {
	Lookup(ctx context.Context, rawLabel string) (model.LearnedMapping, error)
	All(ctx context.Context) ([]model.LearnedMapping, error)
	Put(ctx context.Context, m model.LearnedMapping) error
	Delete(ctx context.Context, rawLabel string) error
}

// Catalog — снимок справочника, которым владеет вызывающая сторона.
type Catalog interface {
	Masters(ctx context.Context) ([]model.MasterRecord, error)
	ReplaceMasters(ctx context.Context, masters []model.MasterRecord) error
}

// Learn — единственный писатель связок. Повтор той же пары ничего не меняет,
// новая пара для той же метки перезаписывает старую.
func Learn(ctx context.Context, store MappingStore, rawLabel, masterID string) error {
	if rawLabel == "" || strings.TrimSpace(masterID) == "" {
		return ErrInvalidMapping
	}
	cur, err := store.Lookup(ctx, rawLabel)
	switch {
	case err == nil && cur.MasterID == masterID:
		return nil
	case err != nil && !errors.Is(err, ErrMappingNotFound):
		return fmt.Errorf("lookup mapping: %w", err)
	}
	if err := store.Put(ctx, model.LearnedMapping{RawLabel: rawLabel, MasterID: masterID}); err != nil {
		return fmt.Errorf("put mapping: %w", err)
	}
	return nil
}

// LearnChecked — Learn с проверкой, что masterID есть в справочнике.
func LearnChecked(ctx context.Context, store MappingStore, masters []model.MasterRecord, rawLabel, masterID string) error {
	found := false
	for i := range masters {
		if masters[i].ID == masterID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownMaster, masterID)
	}
	return Learn(ctx, store, rawLabel, masterID)
}
