package db

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validSpot() *Spot {
	return &Spot{
		Title:       "一条戻橋の鬼",
		Description: "渡辺綱が鬼の腕を切り落としたと伝わる橋。",
		Address:     "京都府京都市上京区",
		IconType:    "ONI",
		Sources:     []Source{{Type: SourceTypeBook, Citation: "平家物語 剣巻"}},
		Location:    NewDBLocation(35.0252, 135.7516),
		BlurRadius:  300,
		Status:      SpotStatusDraft,
	}
}

func TestSpotValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := validSpot().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Title Too Short", func(t *testing.T) {
		s := validSpot()
		s.Title = "a"
		if err := s.Validate(); err == nil {
			t.Error("expected error for short title")
		}
	})

	t.Run("Description Too Short", func(t *testing.T) {
		s := validSpot()
		s.Description = "short"
		if err := s.Validate(); err == nil {
			t.Error("expected error for short description")
		}
	})

	t.Run("Unknown Icon Type", func(t *testing.T) {
		s := validSpot()
		s.IconType = "YOKAI"
		if err := s.Validate(); err == nil {
			t.Error("expected error for unknown icon type")
		}
	})

	t.Run("No Sources", func(t *testing.T) {
		s := validSpot()
		s.Sources = nil
		if err := s.Validate(); err == nil {
			t.Error("expected error for missing sources")
		}
	})

	t.Run("URL Source Without URL", func(t *testing.T) {
		s := validSpot()
		s.Sources = []Source{{Type: SourceTypeURL, Citation: "some page"}}
		if err := s.Validate(); err == nil {
			t.Error("expected error for URL source without url")
		}
	})
}

func TestBuildSpotQuery(t *testing.T) {
	t.Run("Default Is Published Only", func(t *testing.T) {
		query := buildSpotQuery(SpotFilter{})
		and, ok := query["$and"].([]bson.M)
		if !ok || len(and) != 1 {
			t.Fatalf("expected a single condition, got %v", query)
		}
		if and[0]["status"] != SpotStatusPublished {
			t.Errorf("expected published-only visibility, got %v", and[0])
		}
	})

	t.Run("All Statuses Lifts Restriction", func(t *testing.T) {
		query := buildSpotQuery(SpotFilter{AllStatuses: true})
		if len(query) != 0 {
			t.Errorf("expected empty query, got %v", query)
		}
	})

	t.Run("Owner Visibility Widens Match", func(t *testing.T) {
		owner := primitive.NewObjectID()
		query := buildSpotQuery(SpotFilter{OwnerVisibility: &owner})
		and := query["$and"].([]bson.M)
		or, ok := and[0]["$or"].([]bson.M)
		if !ok || len(or) != 2 {
			t.Fatalf("expected published-or-owned condition, got %v", and[0])
		}
		if or[1]["createdBy"] != owner {
			t.Errorf("expected owner condition, got %v", or[1])
		}
	})

	t.Run("Search Term Is Escaped", func(t *testing.T) {
		query := buildSpotQuery(SpotFilter{SearchTerm: "a.b*c", AllStatuses: true})
		and := query["$and"].([]bson.M)
		or := and[0]["$or"].([]bson.M)
		pattern := or[0]["title"].(bson.M)["$regex"].(string)
		if pattern != `a\.b\*c` {
			t.Errorf("expected regex metacharacters escaped, got %q", pattern)
		}
	})

	t.Run("BBox Builds Closed Polygon", func(t *testing.T) {
		bbox := [4]float64{135.0, 34.0, 136.0, 35.0}
		query := buildSpotQuery(SpotFilter{BBox: &bbox, AllStatuses: true})
		and := query["$and"].([]bson.M)
		geo := and[0]["location"].(bson.M)["$geoWithin"].(bson.M)["$geometry"].(bson.M)
		ring := geo["coordinates"].([][][]float64)[0]
		if len(ring) != 5 {
			t.Fatalf("expected 5 ring points, got %d", len(ring))
		}
		if ring[0][0] != ring[4][0] || ring[0][1] != ring[4][1] {
			t.Error("polygon ring must be closed")
		}
	})
}

func TestDBLocation(t *testing.T) {
	loc := NewDBLocation(35.0116, 135.7681)
	if loc.Type != "Point" {
		t.Errorf("expected Point, got %s", loc.Type)
	}
	if loc.Latitude() != 35.0116 || loc.Longitude() != 135.7681 {
		t.Errorf("lat/lng accessors mismatch: %f, %f", loc.Latitude(), loc.Longitude())
	}

	var malformed DBLocation
	if malformed.Latitude() != 0 || malformed.Longitude() != 0 {
		t.Error("malformed location must read as zero")
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct{ in, out string }{
		{"hello world", "hello world"},
		{"鬼の伝説", "鬼の伝説"},
		{"a<script>b", "ascriptb"},
		{"term, with. punct-uation_ok", "term, with. punct-uation_ok"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in); got != tc.out {
			t.Errorf("SanitizeString(%q) = %q, expected %q", tc.in, got, tc.out)
		}
	}
}
