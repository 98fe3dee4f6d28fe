package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/school_bakery/internal/dbtest"
	"github.com/Skotchmaster/school_bakery/internal/eventstest"
	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/repo"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

type fixture struct {
	Repo    *repo.GormRepo
	Events  *eventstest.Recorder
	Auth    *AuthService
	Catalog *CatalogService
	Orders  *OrderService
	Stats   *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := &repo.GormRepo{DB: dbtest.Open(t)}
	rec := &eventstest.Recorder{}
	return &fixture{
		Repo:    r,
		Events:  rec,
		Auth:    &AuthService{Repo: r, Secret: []byte("test-jwt-secret"), Events: rec},
		Catalog: &CatalogService{Repo: r, Events: rec},
		Orders:  &OrderService{Repo: r, Events: rec},
		Stats:   &StatsService{Repo: r},
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: name,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Rating:      decimal.RequireFromString("4.5"),
		IsActive:    true,
	}
	require.NoError(t, f.Repo.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) user(t *testing.T, username string, role models.Role) tokens.Identity {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x", FullName: username, Role: role}
	require.NoError(t, f.Repo.CreateUser(context.Background(), u))
	return tokens.Identity{UserID: u.ID, Username: u.Username, Role: string(u.Role)}
}
