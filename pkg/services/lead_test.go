package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getleadpipe/leadpipe/pkg/models"
	"github.com/getleadpipe/leadpipe/pkg/persistence/file"
	"github.com/getleadpipe/leadpipe/pkg/services"
)

func TestLead_CreateAndFetch(t *testing.T) {
	service := services.NewLead(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), &models.Lead{
		Name:    "Grace Hopper",
		Phone:   "+14155550100",
		Email:   "grace@example.com",
		Company: "Navy",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", fetched.Name)
	assert.Equal(t, "+14155550100", fetched.Phone)
}

func TestLead_FetchByID_NotFound(t *testing.T) {
	service := services.NewLead(file.NewPersistence(t.TempDir()))

	lead, err := service.FetchByID(t.Context(), "non-existent")
	assert.Error(t, err)
	assert.Nil(t, lead)
	assert.ErrorIs(t, err, services.ErrLeadNotFound)
}

func TestLead_Update(t *testing.T) {
	service := services.NewLead(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), &models.Lead{Name: "Ada", Phone: "+14155550101"})
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ID, &models.Lead{
		Name:  "Ada Lovelace",
		Phone: "+14155550101",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestLead_Delete(t *testing.T) {
	service := services.NewLead(file.NewPersistence(t.TempDir()))

	created, err := service.Create(t.Context(), &models.Lead{Name: "Ada", Phone: "+14155550101"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, services.ErrLeadNotFound)

	err = service.Delete(t.Context(), created.ID)
	assert.ErrorIs(t, err, services.ErrLeadNotFound)
}

func TestLead_List(t *testing.T) {
	service := services.NewLead(file.NewPersistence(t.TempDir()))

	for _, name := range []string{"First", "Second", "Third"} {
		_, err := service.Create(t.Context(), &models.Lead{Name: name, Phone: "+14155550102"})
		require.NoError(t, err)
	}

	leads, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, leads, 3)
}
