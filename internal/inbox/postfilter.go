package inbox

import (
	"github.com/fieldline/comms-backend/internal/models"
)

// applyMemoryFilter keeps the rows of a fetched window that satisfy a
// tag-based folder predicate. For spam the predicate is the union of the
// category and the tag: a row tagged spam but miscategorized must still
// appear.
func applyMemoryFilter(folder Folder, comms []models.Communication) []models.Communication {
	keep := func(c *models.Communication) bool { return true }

	switch folder {
	case FolderStarred:
		keep = func(c *models.Communication) bool {
			return c.Tags.Contains(models.TagStarred)
		}
	case FolderSpam:
		keep = func(c *models.Communication) bool {
			return c.Category == models.CategorySpam || c.Tags.Contains(models.TagSpam)
		}
	default:
		return comms
	}

	filtered := make([]models.Communication, 0, len(comms))
	for i := range comms {
		if keep(&comms[i]) {
			filtered = append(filtered, comms[i])
		}
	}
	return filtered
}
