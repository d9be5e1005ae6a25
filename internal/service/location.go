package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/repo"
)

type LocationService struct {
	Repo *repo.GormRepo
}

type LocationInput struct {
	Pincode  string
	AreaName string
	District string
	State    string
	Country  string
	IsActive *bool
}

func (s *LocationService) ListActive(ctx context.Context) ([]models.ServiceLocation, error) {
	return s.Repo.ListLocations(ctx, true)
}

func (s *LocationService) ListAll(ctx context.Context) ([]models.ServiceLocation, error) {
	return s.Repo.ListLocations(ctx, false)
}

// CheckServiceability returns the active location that delivers to pincode.
func (s *LocationService) CheckServiceability(ctx context.Context, pincode string) (*models.ServiceLocation, error) {
	loc, err := s.Repo.FindActiveLocation(ctx, pincode)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: pincode %s is not serviceable", ErrNotFound, pincode)
		}
		return nil, err
	}
	return loc, nil
}

func (s *LocationService) Get(ctx context.Context, id uint) (*models.ServiceLocation, error) {
	loc, err := s.Repo.GetLocation(ctx, id)
	if err != nil {
		return nil, storeErr(err, "service location")
	}
	return loc, nil
}

func (s *LocationService) Create(ctx context.Context, in LocationInput) (*models.ServiceLocation, error) {
	loc := &models.ServiceLocation{
		Pincode:  in.Pincode,
		AreaName: in.AreaName,
		District: in.District,
		State:    in.State,
		Country:  in.Country,
		IsActive: true,
	}
	if loc.Country == "" {
		loc.Country = "India"
	}
	inactive := in.IsActive != nil && !*in.IsActive
	if err := s.Repo.CreateLocation(ctx, loc); err != nil {
		if repo.IsDuplicate(err) {
			return nil, fmt.Errorf("%w: pincode %s already configured", ErrBusinessRule, in.Pincode)
		}
		return nil, err
	}
	// gorm fills a zero field that has a column default with that default on insert
	if inactive {
		return s.Repo.UpdateLocation(ctx, loc.ID, map[string]any{"is_active": false})
	}
	return loc, nil
}

func (s *LocationService) Update(ctx context.Context, id uint, in LocationInput) (*models.ServiceLocation, error) {
	changes := map[string]any{}
	for col, v := range map[string]string{
		"pincode":   in.Pincode,
		"area_name": in.AreaName,
		"district":  in.District,
		"state":     in.State,
		"country":   in.Country,
	} {
		if v != "" {
			changes[col] = v
		}
	}
	if in.IsActive != nil {
		changes["is_active"] = *in.IsActive
	}

	loc, err := s.Repo.UpdateLocation(ctx, id, changes)
	if err != nil {
		if repo.IsDuplicate(err) {
			return nil, fmt.Errorf("%w: pincode %s already configured", ErrBusinessRule, in.Pincode)
		}
		return nil, storeErr(err, "service location")
	}
	return loc, nil
}

func (s *LocationService) Delete(ctx context.Context, id uint) error {
	return storeErr(s.Repo.DeleteLocation(ctx, id), "service location")
}
