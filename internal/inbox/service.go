package inbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fieldline/comms-backend/internal/metrics"
	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/requestcache"
)

// Service resolves inbox views over the communication store. Resolution
// is stateless per call; the only caching is the per-request memoization
// installed by middleware.
type Service struct {
	comms   repository.CommunicationRepository
	members repository.MemberRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a new inbox resolution service
func NewService(comms repository.CommunicationRepository, members repository.MemberRepository, logger *slog.Logger) *Service {
	return &Service{
		comms:   comms,
		members: members,
		logger:  logger,
		now:     time.Now,
	}
}

// Resolve computes the folder view for a request. Store failures and
// unresolvable mailbox owners both degrade to an empty result; this
// path never returns an error to the caller.
func (s *Service) Resolve(ctx context.Context, req Request) Result {
	req = req.withDefaults()

	key := requestcache.Key("inbox.resolve", req)
	if cache, ok := requestcache.FromContext(ctx); ok {
		if v, ok := cache.Get(key); ok {
			if res, ok := v.(Result); ok {
				return res
			}
		}
	}

	res := s.resolve(ctx, req)

	if cache, ok := requestcache.FromContext(ctx); ok {
		cache.Set(key, res)
	}
	return res
}

func (s *Service) resolve(ctx context.Context, req Request) Result {
	start := time.Now()
	empty := emptyResult(req)

	if req.CompanyID == "" {
		return empty
	}

	if req.InboxType == InboxTypePersonal {
		if req.MemberID == "" {
			return empty
		}
		member, err := s.members.GetByID(ctx, req.CompanyID, req.MemberID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) && s.logger != nil {
				s.logger.Error("failed to resolve mailbox owner",
					slog.String("company_id", req.CompanyID),
					slog.String("member_id", req.MemberID),
					slog.Any("error", err))
			}
			return empty
		}
		if !member.IsActive {
			return empty
		}
	}

	filter := buildFilter(req, s.now())
	comms, total, err := s.comms.List(ctx, filter)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("inbox query failed",
				slog.String("company_id", req.CompanyID),
				slog.String("folder", folderLabel(req.Folder)),
				slog.String("inbox_type", string(req.InboxType)),
				slog.Any("error", err))
		}
		return empty
	}

	res := Result{Limit: req.Limit, Offset: req.Offset}

	if needsMemoryFilter(req.Folder) {
		filtered := applyMemoryFilter(req.Folder, comms)
		// Counters reflect the filtered window only; true pagination
		// would require scanning the whole table with the same
		// predicate, so has_more is forced off.
		res.Total = int64(len(filtered))
		res.HasMore = false
		if len(filtered) > req.Limit {
			filtered = filtered[:req.Limit]
		}
		res.Communications = filtered
		metrics.InboxMemoryFiltered.WithLabelValues(string(req.Folder)).Inc()
	} else {
		res.Communications = comms
		res.Total = total
		res.HasMore = int64(req.Offset+len(comms)) < total
	}

	normalizeRecords(res.Communications)
	if res.Communications == nil {
		res.Communications = []models.Communication{}
	}

	metrics.ObserveInboxQuery(folderLabel(req.Folder), string(req.InboxType), time.Since(start))
	return res
}

func emptyResult(req Request) Result {
	return Result{
		Communications: []models.Communication{},
		Total:          0,
		HasMore:        false,
		Limit:          req.Limit,
		Offset:         req.Offset,
	}
}

func folderLabel(f Folder) string {
	if f == FolderNone {
		return "none"
	}
	return string(f)
}
