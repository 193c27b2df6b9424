// Package seed loads the demo data set (one admin, three users, three store owners,
// six stores and their ratings) through the regular repositories.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storehub/internal/microservices/http-api/models"
	"storehub/internal/microservices/http-api/repository"
	"storehub/internal/middleware/auth"
	"storehub/internal/shared"
)

//go:embed demo.json
var demoJSON []byte

// ErrAlreadySeeded is returned when the first demo account already exists.
var ErrAlreadySeeded = errors.New("demo data already present")

type Data struct {
	Users []struct {
		Name     string      `json:"name"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		Address  string      `json:"address"`
		Role     shared.Role `json:"role"`
	} `json:"users"`
	Stores []struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
		Owner   string `json:"owner"` // owner email
	} `json:"stores"`
	Ratings []struct {
		User    string `json:"user"`  // user email
		Store   string `json:"store"` // store email
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	} `json:"ratings"`
}

// Demo returns the embedded demo data set.
func Demo() (*Data, error) {
	var d Data
	if err := json.Unmarshal(demoJSON, &d); err != nil {
		return nil, fmt.Errorf("failed to decode demo data: %w", err)
	}
	return &d, nil
}

// Load inserts d in one transaction. Passwords are hashed with bcryptCost.
func Load(ctx context.Context, db *gorm.DB, d *Data, bcryptCost int, log *zap.Logger) error {
	if len(d.Users) == 0 {
		return nil
	}
	if _, err := repository.NewUserRepository(db).FindByEmail(ctx, d.Users[0].Email); err == nil {
		return ErrAlreadySeeded
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		stores := repository.NewStoreRepository(tx)
		ratings := repository.NewRatingRepository(tx)

		userIDs := make(map[string]uint, len(d.Users))
		for _, u := range d.Users {
			hash, err := auth.HashPassword(u.Password, bcryptCost)
			if err != nil {
				return err
			}
			m := &models.User{Name: u.Name, Email: u.Email, Password: hash, Address: u.Address, Role: u.Role}
			if err := users.Create(ctx, m); err != nil {
				return fmt.Errorf("user %s: %w", u.Email, err)
			}
			userIDs[u.Email] = m.ID
		}

		storeIDs := make(map[string]uint, len(d.Stores))
		for _, s := range d.Stores {
			m := &models.Store{Name: s.Name, Email: s.Email, Address: s.Address}
			if s.Owner != "" {
				id, ok := userIDs[s.Owner]
				if !ok {
					return fmt.Errorf("store %s: unknown owner %s", s.Email, s.Owner)
				}
				m.OwnerID = &id
			}
			if err := stores.Create(ctx, m); err != nil {
				return fmt.Errorf("store %s: %w", s.Email, err)
			}
			storeIDs[s.Email] = m.ID
		}

		for _, r := range d.Ratings {
			userID, okUser := userIDs[r.User]
			storeID, okStore := storeIDs[r.Store]
			if !okUser || !okStore {
				return fmt.Errorf("rating %s -> %s: unknown user or store", r.User, r.Store)
			}
			m := &models.Rating{UserID: userID, StoreID: storeID, Rating: r.Rating}
			if r.Comment != "" {
				comment := r.Comment
				m.Comment = &comment
			}
			if err := ratings.Create(ctx, m); err != nil {
				return fmt.Errorf("rating %s -> %s: %w", r.User, r.Store, err)
			}
		}

		log.Info("demo data seeded",
			zap.Int("users", len(d.Users)),
			zap.Int("stores", len(d.Stores)),
			zap.Int("ratings", len(d.Ratings)))
		return nil
	})
}
