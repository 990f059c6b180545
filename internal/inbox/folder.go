package inbox

import (
	"time"

	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
)

// memoryFetchFactor widens the fetch window for folders whose predicate
// can only be applied in memory, so one page of store rows yields enough
// matches to fill one page of results.
const memoryFetchFactor = 5

// needsMemoryFilter reports whether the folder's predicate depends on
// tag containment, which the store-side query cannot express.
func needsMemoryFilter(f Folder) bool {
	return f == FolderStarred || f == FolderSpam
}

// buildFilter compiles a resolution request into store-side predicates.
// This is the folder predicate table: each folder maps to a fixed
// combination of row-state conditions.
func buildFilter(req Request, now time.Time) repository.ListFilter {
	f := repository.ListFilter{
		CompanyID: req.CompanyID,
		Search:    req.Search,
		Now:       now,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}

	switch req.InboxType {
	case InboxTypeCompany:
		f.SharedOnly = true
		f.Category = req.Category
	default:
		owner := req.MemberID
		f.OwnerID = &owner
	}

	archived := false
	switch req.Folder {
	case FolderInbox:
		f.Direction = models.DirectionInbound
		f.Archived = &archived
		f.StatusNot = models.StatusDraft
		f.CategoryNot = models.CategorySpam
		f.ExcludeSnoozed = true

	case FolderSent:
		f.Direction = models.DirectionOutbound
		f.Archived = &archived
		f.StatusNot = models.StatusDraft

	case FolderStarred, FolderSpam:
		// Tag containment is applied in memory on a widened window; the
		// spam/category union also can't be pushed down, so no category
		// predicate is added here even for folder=spam.
		f.Limit = req.Limit * memoryFetchFactor

	case FolderArchive:
		isArchived := true
		f.Archived = &isArchived

	case FolderDrafts:
		f.Status = models.StatusDraft

	case FolderSnoozed:
		f.SnoozedOnly = true

	case FolderTrash, FolderBin:
		f.DeletedOnly = true

	case FolderAll:
		f.IncludeDeleted = true
	}

	return f
}
