package services

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cast"

	storage "wayfarer/internal/storage/interfaces"
)

const usersCollection = "users"

const visitedPlacesField = "visited_places"

// profileFields are the keys clients may set on a profile. Anything else
// in an update payload is ignored.
var profileFields = map[string]bool{
	"display_name": true,
	"home_base":    true,
	"preferences":  true,
}

type ProfileServiceInterface interface {
	// GetProfile returns the user's profile, creating a default one on
	// first access.
	GetProfile(ctx context.Context, userID string) (map[string]interface{}, error)
	UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) (map[string]interface{}, error)
	DeleteProfile(ctx context.Context, userID string) error
	RecordVisit(ctx context.Context, userID, place string) error
	// VisitedPlaces lists distinct visited place names, oldest first.
	VisitedPlaces(ctx context.Context, userID string) ([]string, error)
}

type ProfileService struct {
	store storage.DocumentStoreInterface
}

func NewProfileService(store storage.DocumentStoreInterface) ProfileServiceInterface {
	return &ProfileService{store: store}
}

func (p *ProfileService) GetProfile(ctx context.Context, userID string) (map[string]interface{}, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	doc, err := p.store.GetDocument(ctx, usersCollection, userID)
	if err != nil {
		return nil, err
	}
	if doc.Exists {
		return doc.Data, nil
	}
	profile := map[string]interface{}{
		"created_at":  time.Now().UTC().Format(time.RFC3339Nano),
		"preferences": map[string]interface{}{},
	}
	if err := p.store.SetDocument(ctx, usersCollection, userID, profile, false); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *ProfileService) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) (map[string]interface{}, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	patch := make(map[string]interface{})
	for key, value := range updates {
		if profileFields[key] {
			patch[key] = value
		}
	}
	if len(patch) == 0 {
		return p.GetProfile(ctx, userID)
	}
	patch["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	if err := p.store.SetDocument(ctx, usersCollection, userID, patch, true); err != nil {
		return nil, err
	}
	return p.GetProfile(ctx, userID)
}

func (p *ProfileService) DeleteProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return p.store.DeleteDocument(ctx, usersCollection, userID)
}

func (p *ProfileService) RecordVisit(ctx context.Context, userID, place string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if place == "" {
		return fmt.Errorf("place name is required")
	}
	visit := map[string]interface{}{
		"name":       place,
		"visited_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	return p.store.AppendToArray(ctx, usersCollection, userID, visitedPlacesField, visit)
}

func (p *ProfileService) VisitedPlaces(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	doc, err := p.store.GetDocument(ctx, usersCollection, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	places := make([]string, 0)
	for _, item := range cast.ToSlice(doc.Data[visitedPlacesField]) {
		// Older documents stored bare place names instead of visit maps.
		name := cast.ToString(cast.ToStringMap(item)["name"])
		if name == "" {
			name = cast.ToString(item)
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		places = append(places, name)
	}
	return places, nil
}
