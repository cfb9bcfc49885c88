package organizations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resourcebook/backend/internal/models"
	"github.com/resourcebook/backend/internal/store/memory"
	"github.com/resourcebook/backend/pkg/apperror"
)

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewService(st, nil)

	acme, err := svc.Create(ctx, " Acme ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", acme.Name)

	_, err = svc.Create(ctx, "Acme")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	_, err = svc.Create(ctx, "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	globex, err := svc.Create(ctx, "Globex")
	require.NoError(t, err)
	_, err = svc.Rename(ctx, globex.ID, "Acme")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	renamed, err := svc.Rename(ctx, globex.ID, "Initech")
	require.NoError(t, err)
	assert.Equal(t, "Initech", renamed.Name)

	got, err := svc.GetByName(ctx, "Initech")
	require.NoError(t, err)
	assert.Equal(t, globex.ID, got.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeleteRequiresEmptyOrganization(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewService(st, nil)

	org, err := svc.Create(ctx, "Acme")
	require.NoError(t, err)
	r := &models.Resource{Name: "room", OrganizationID: org.ID, Status: models.ResourceEnabled}
	require.NoError(t, st.CreateResource(ctx, r))

	assert.True(t, apperror.Is(svc.Delete(ctx, org.ID), apperror.KindConflict))

	require.NoError(t, st.DeleteResource(ctx, r.ID))
	require.NoError(t, svc.Delete(ctx, org.ID))

	_, err = svc.Get(ctx, org.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.True(t, apperror.Is(svc.Delete(ctx, org.ID), apperror.KindNotFound))
}
