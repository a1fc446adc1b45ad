package property_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"water-app-go/internal/domain/property"
	"water-app-go/internal/platform/lock"
	"water-app-go/internal/repository/inmemory"
	"water-app-go/pkg/apperr"
	"water-app-go/pkg/events"
)

var errConnReset = errors.New("connection reset by peer")

type appendFamilyFails struct {
	*inmemory.PropertyRepository
}

func (appendFamilyFails) AppendFamily(context.Context, string, string) error {
	return errConnReset
}

type deleteByRootFails struct {
	*inmemory.FamilyRepository
}

func (deleteByRootFails) DeleteByRoot(context.Context, string) (int64, error) {
	return 0, errConnReset
}

func TestAddTenantStopsAtFailedStepAndKeepsEarlierWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "owner")
	f.user(t, "t1")
	p := f.create(t, "owner", "H1")

	recorder := &events.Recorder{}
	svc := property.NewService(f.users, appendFamilyFails{f.properties}, f.families, lock.NewKeyedMutex(), property.WithPublisher(recorder))

	_, err := svc.AddTenant(ctx, p.ID, "t1", p.RootID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorageUnavailable, apperr.KindOf(err))
	assert.ErrorContains(t, err, "append family")
	assert.ErrorIs(t, err, errConnReset)
	assert.Empty(t, recorder.Subjects())

	// Steps before the failure are not rolled back.
	family, err := f.families.Get(ctx, p.RootID, "001")
	require.NoError(t, err)
	assert.Equal(t, p.RootID, family.RootID)
	tenant := f.load(t, "t1")
	assert.Equal(t, p.RootID+"_001", tenant.WaterID)
	assert.Equal(t, "001", tenant.TenantCode)

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumberOfTenants)
	assert.Equal(t, []string{p.RootID + "_000"}, []string(got.Families))
}

func TestDeletePropertyStopsAtFailedStepAndKeepsEarlierWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "owner")
	p := f.create(t, "owner", "H1")

	svc := property.NewService(f.users, f.properties, deleteByRootFails{f.families}, lock.NewKeyedMutex())

	err := svc.DeleteProperty(ctx, p.RootID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorageUnavailable, apperr.KindOf(err))
	assert.ErrorContains(t, err, "delete family records")
	assert.ErrorIs(t, err, errConnReset)

	// Relocation and ownership removal already happened.
	owner := f.load(t, "owner")
	assert.False(t, owner.Housed())
	assert.Empty(t, owner.Properties)

	// The property and its owner family record are still there.
	_, err = f.svc.GetByRoot(ctx, p.RootID)
	require.NoError(t, err)
	_, err = f.families.Get(ctx, p.RootID, "000")
	require.NoError(t, err)

	// A retry on a healthy store finishes the job.
	require.NoError(t, f.svc.DeleteProperty(ctx, p.RootID))
	_, err = f.svc.GetByRoot(ctx, p.RootID)
	assert.ErrorIs(t, err, property.ErrPropertyNotFound)
}
