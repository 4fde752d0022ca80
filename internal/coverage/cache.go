package coverage

import (
	"log"

	"github.com/propstack/claimsgo/internal/database"
	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm/clause"
)

// Cache flips the stale flag on a property's cached coverage-gap analysis.
// Recomputing the analysis is someone else's job; claim mutations only
// invalidate.
type Cache struct {
	db *database.DB
}

// NewCache creates the coverage-gap cache collaborator
func NewCache(db *database.DB) *Cache {
	return &Cache{db: db}
}

// MarkStale flags the property's analysis for recomputation. Fire-and-forget:
// failures are logged, never surfaced to the claim mutation that triggered
// the invalidation.
func (c *Cache) MarkStale(propertyID string) {
	analysis := models.CoverageAnalysis{
		PropertyID: propertyID,
		Stale:      true,
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"stale": true}),
	}).Create(&analysis).Error
	if err != nil {
		log.Printf("⚠️ Coverage cache: failed to mark property %s stale: %v", propertyID, err)
	}
}
