package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldworks/realtime-service/internal/adapter/bus"
	"github.com/fieldworks/realtime-service/internal/auth"
	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/domain/presence"
)

func TestSetStatus_UpsertsAndAnnounces(t *testing.T) {
	req := require.New(t)
	store := presence.NewStore()
	dispatcher := &fakeDispatcher{}
	svc := NewPresenceService(store, dispatcher, slog.Default())

	rec, err := svc.SetStatus(context.Background(), auth.Identity{UserID: "user-1"}, "away")
	req.NoError(err)
	req.Equal("user-1", rec.UserID)
	req.Equal(presence.StatusAway, rec.Status)
	req.False(rec.LastSeen.IsZero())

	req.Contains(dispatcher.topics(), bus.TopicPresenceChanged)
}

func TestSetStatus_InvalidValueLeavesRecordUntouched(t *testing.T) {
	req := require.New(t)
	store := presence.NewStore()
	dispatcher := &fakeDispatcher{}
	svc := NewPresenceService(store, dispatcher, slog.Default())

	_, err := svc.SetStatus(context.Background(), auth.Identity{UserID: "user-1"}, "online")
	req.NoError(err)

	_, err = svc.SetStatus(context.Background(), auth.Identity{UserID: "user-1"}, "busy")
	req.ErrorIs(err, apperr.ErrInvalidArgument)

	records, _ := svc.Query(context.Background(), []string{"user-1"})
	req.Equal(presence.StatusOnline, records[0].Status)
	// The rejected update published nothing.
	req.Len(dispatcher.topics(), 1)
}

func TestQuery_FilterAndOnlineCount(t *testing.T) {
	req := require.New(t)
	store := presence.NewStore()
	svc := NewPresenceService(store, &fakeDispatcher{}, slog.Default())

	store.Set("a", presence.StatusOnline)
	store.Set("b", presence.StatusAway)

	records, online := svc.Query(context.Background(), []string{"a", "missing"})
	req.Len(records, 2)
	req.Equal(1, online)
	req.Equal(presence.StatusOffline, records[1].Status)

	all, online := svc.Query(context.Background(), nil)
	req.Len(all, 2)
	req.Equal(1, online)
}
