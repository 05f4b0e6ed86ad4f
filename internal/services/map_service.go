package services

import (
	"context"

	"bantayani/internal/models"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Map returns the caller's visible detections as GeoJSON points. Detections
// without a usable coordinate pair are left out.
func (s *DetectionService) Map(ctx context.Context, caller models.Caller, filter models.DetectionFilter) (*geojson.FeatureCollection, error) {
	views, err := s.List(ctx, caller, filter)
	if err != nil {
		return nil, err
	}
	return BuildFeatureCollection(views), nil
}

func BuildFeatureCollection(views []models.DetectionView) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, v := range views {
		if !v.HasValidCoordinates() {
			continue
		}
		point := geom.NewPointFlat(geom.XY, []float64{*v.Longitude, *v.Latitude})

		props := map[string]any{
			"pest_type":  v.PestType,
			"crop_type":  v.CropType,
			"status":     string(v.Status),
			"confidence": v.Confidence,
			"image_url":  v.ImageURL,
			"created_at": v.CreatedAt,
		}
		if v.LocationName != nil {
			props["location_name"] = *v.LocationName
		}
		if v.FarmerName != nil {
			props["farmer_name"] = *v.FarmerName
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         v.ID.String(),
			Geometry:   point,
			Properties: props,
		})
	}
	return fc
}
