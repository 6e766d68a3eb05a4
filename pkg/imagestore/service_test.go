package imagestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
	"github.com/xhad/tier0/pkg/imagestore"
)

type fakeImageStore struct {
	images     []models.ImageInfo
	lastFilter types.ImageFilter
	fail       bool
}

func (f *fakeImageStore) Find(_ context.Context, filter types.ImageFilter, _ int) ([]models.ImageInfo, error) {
	f.lastFilter = filter
	if f.fail {
		return nil, errors.New("mongo down")
	}
	return f.images, nil
}

func siteImages() []models.ImageInfo {
	return []models.ImageInfo{
		{
			Filename:   "cam_north_001.jpg",
			DeviceType: "north_rig_camera",
			Keywords:   []string{"worker", "hard hat"},
			Compliance: models.ComplianceRecord{HasHardHat: true, ComplianceScore: 90},
		},
		{
			Filename:   "cam_north_002.jpg",
			DeviceType: "north_rig_camera",
			Keywords:   []string{"worker", "vest"},
			Compliance: models.ComplianceRecord{HasHardHat: true, HasSafetyVest: true, ComplianceScore: 80},
		},
		{
			Filename:   "cam_dock_001.jpg",
			DeviceType: "dock_camera",
			Keywords:   []string{"tablet"},
			Compliance: models.ComplianceRecord{HasInspection: true, ComplianceScore: 70},
		},
	}
}

func TestFilterFor_HardHat(t *testing.T) {
	filter := imagestore.FilterFor("Show workers with hard hats")
	require.NotNil(t, filter.HardHat)
	assert.True(t, *filter.HardHat)
	assert.Nil(t, filter.SafetyVest)
	assert.Nil(t, filter.Inspection)
}

func TestFilterFor_WithoutNegatesHardHat(t *testing.T) {
	filter := imagestore.FilterFor("show workers WITHOUT helmets")
	require.NotNil(t, filter.HardHat)
	assert.False(t, *filter.HardHat)
}

func TestFilterFor_TabletAndVest(t *testing.T) {
	filter := imagestore.FilterFor("find sites with tablets and safety vests")
	require.NotNil(t, filter.Inspection)
	assert.True(t, *filter.Inspection)
	require.NotNil(t, filter.SafetyVest)
	assert.True(t, *filter.SafetyVest)
	assert.Nil(t, filter.HardHat)
}

func TestQuery_TemplateAnswerWithoutProvider(t *testing.T) {
	store := &fakeImageStore{images: siteImages()}
	svc := imagestore.NewService(store, nil, nil)

	result := svc.Query(context.Background(), "Show workers with hard hats")

	require.NotNil(t, result)
	assert.Equal(t, models.TypeImageAnalysis, result.Type)
	assert.False(t, result.Synthesized)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, []string{"dock_camera", "north_rig_camera"}, result.Sites)
	assert.Equal(t, 80.0, result.AvgCompliance)
	assert.Contains(t, result.Answer, "Found 3 images showing workers with proper safety equipment")
	assert.Contains(t, result.Answer, "Average safety compliance: 80.0%")
}

func TestQuery_WithoutPhrasing(t *testing.T) {
	store := &fakeImageStore{images: siteImages()[:1]}
	svc := imagestore.NewService(store, nil, nil)

	result := svc.Query(context.Background(), "workers without hard hats")

	assert.Contains(t, result.Answer, "WITHOUT proper safety equipment")
	require.NotNil(t, store.lastFilter.HardHat)
	assert.False(t, *store.lastFilter.HardHat)
}

func TestQuery_NoMatches(t *testing.T) {
	svc := imagestore.NewService(&fakeImageStore{}, nil, nil)

	result := svc.Query(context.Background(), "show workers with hard hats")

	assert.Equal(t, models.TypeNoMatch, result.Type)
	assert.False(t, result.Synthesized)
	assert.Contains(t, result.Answer, "No matching images found")
}

func TestQuery_StoreFailureIsNotFatal(t *testing.T) {
	svc := imagestore.NewService(&fakeImageStore{fail: true}, nil, nil)

	result := svc.Query(context.Background(), "show workers with hard hats")

	require.NotNil(t, result)
	assert.Equal(t, models.TypeNoMatch, result.Type)
}
