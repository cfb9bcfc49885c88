package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/pkg/utils"
)

// Admin describes the platform administrator seeded at startup.
type Admin struct {
	Organization string
	Name         string
	Email        string
	Password     string
}

// Bootstrap creates the administrator and its organization unless an account
// with that email already exists. An empty email disables seeding.
func Bootstrap(ctx context.Context, st store.Store, admin Admin, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" {
		return nil
	}
	if admin.Password == "" {
		return errors.New("bootstrap admin password is empty")
	}
	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created := false
	err = st.WithinTx(ctx, func(tx store.Tx) error {
		exists, err := tx.EmailExists(ctx, email)
		if err != nil || exists {
			return err
		}
		org, err := tx.GetOrganizationByName(ctx, admin.Organization)
		if errors.Is(err, store.ErrNotFound) {
			org = &models.Organization{Name: admin.Organization}
			err = tx.CreateOrganization(ctx, org)
		}
		if err != nil {
			return fmt.Errorf("admin organization: %w", err)
		}
		u := &models.User{
			Name:           admin.Name,
			Email:          email,
			Password:       hash,
			Role:           models.RoleAdmin,
			OrganizationID: org.ID,
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("email", email))
	}
	return nil
}
