package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/nexus-commerce/pkg/db/dbtest"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

func seedNotification(t *testing.T, repo Repository, userID uuid.UUID, title string) models.Notification {
	t.Helper()
	n := models.Notification{
		UserID:  userID,
		Type:    enums.NotificationOrderConfirmation,
		Title:   title,
		Message: "message for " + title,
	}
	created, err := repo.Create(context.Background(), &n)
	require.NoError(t, err)
	require.True(t, created)
	return n
}

func TestListPaginatesPerUser(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	for _, title := range []string{"a", "b", "c"} {
		seedNotification(t, repo, userID, title)
	}
	seedNotification(t, repo, uuid.New(), "other")

	page, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.List(ctx, ListParams{UserID: userID, Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.Cursor)

	seen := map[uuid.UUID]bool{}
	for _, n := range append(page.Items, rest.Items...) {
		assert.Equal(t, userID, n.UserID)
		seen[n.ID] = true
	}
	assert.Len(t, seen, 3)

	_, err = svc.List(ctx, ListParams{UserID: userID, Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.List(ctx, ListParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestMarkReadScopedToOwner(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	n := seedNotification(t, repo, userID, "shipped")
	seedNotification(t, repo, userID, "delivered")

	err = svc.MarkRead(ctx, uuid.New(), n.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.MarkRead(ctx, userID, n.ID))
	// Marking an already read notification is a no-op.
	require.NoError(t, svc.MarkRead(ctx, userID, n.ID))

	unread, err := svc.List(ctx, ListParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, "delivered", unread.Items[0].Title)

	count, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	err = svc.MarkRead(ctx, userID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateIgnoresDuplicateEvent(t *testing.T) {
	client := dbtest.NewSQLite(t)
	repo := NewRepository(client.DB())
	eventID := uuid.New()
	kind := string(enums.NotificationOrderShipped)
	build := func() *models.Notification {
		return &models.Notification{
			UserID:    uuid.New(),
			Type:      enums.NotificationOrderShipped,
			Title:     "Shipped",
			Message:   "on its way",
			EventID:   &eventID,
			EventKind: &kind,
		}
	}

	created, err := repo.Create(context.Background(), build())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(context.Background(), build())
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, client.DB().Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
