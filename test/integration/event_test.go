package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

func eventPayload(app *TestApp, title string) map[string]any {
	return map[string]any{
		"title":                title,
		"description":          "Resolved by the league's official results page.",
		"category":             "Sports",
		"outcomes":             []string{"Home", "Draw", "Away"},
		"resolution_source":    "https://example.com/results",
		"resolution_date_time": app.Clock.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}
}

func TestEventLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	owner := createUserAndToken(t, app.DB, domain.RoleGeneral)
	other := createUserAndToken(t, app.DB, domain.RoleGeneral)
	ops := createUserAndToken(t, app.DB, domain.RoleOps)
	admin := createUserAndToken(t, app.DB, domain.RoleAdmin)

	// 1. Create
	resp := app.call(t, nil, http.MethodPost, "/api/events", owner, eventPayload(app, "Derby result"))
	require.Equal(t, http.StatusCreated, resp.Status)
	event := decodeData[domain.Event](t, resp)
	assert.Equal(t, domain.StatusPending, event.Status)
	require.Len(t, event.Outcomes, 3)
	for i, o := range event.Outcomes {
		assert.Equal(t, i, o.Index)
		assert.Zero(t, o.Votes)
	}

	// 2. Same title in the same category is a conflict, regardless of case
	resp = app.call(t, nil, http.MethodPost, "/api/events", other, eventPayload(app, "DERBY RESULT"))
	require.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "DUPLICATE_EVENT", resp.Error.Code)

	// 3. Owners see their own events, others do not
	resp = app.call(t, nil, http.MethodGet, "/api/events", owner, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, decodeData[[]domain.Event](t, resp), 1)

	resp = app.call(t, nil, http.MethodGet, "/api/events", other, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, decodeData[[]domain.Event](t, resp))

	// 4. Admin sees pending events
	resp = app.call(t, nil, http.MethodGet, "/api/events?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, decodeData[[]domain.Event](t, resp), 1)

	// 5. The owner edits while pending
	edit := eventPayload(app, "Derby final result")
	edit["outcomes"] = []string{"Home", "Away"}
	resp = app.call(t, nil, http.MethodPut, "/api/events/"+event.ID.String(), owner, edit)
	require.Equal(t, http.StatusOK, resp.Status)
	edited := decodeData[domain.Event](t, resp)
	assert.Equal(t, "Derby final result", edited.Title)
	require.Len(t, edited.Outcomes, 2)
	assert.Equal(t, "Away", edited.Outcomes[1].Label)

	// 6. Non admins cannot moderate and the status stays untouched
	statusPath := fmt.Sprintf("/api/events/%s/status", event.ID)
	for _, token := range []string{owner, ops} {
		resp = app.call(t, nil, http.MethodPatch, statusPath, token, map[string]string{"status": "approved"})
		require.Equal(t, http.StatusForbidden, resp.Status)
	}
	resp = app.call(t, nil, http.MethodGet, "/api/events/"+event.ID.String(), admin, nil)
	assert.Equal(t, domain.StatusPending, decodeData[domain.Event](t, resp).Status)

	// 7. Admin approves, the public votable list shows it
	resp = app.call(t, nil, http.MethodPatch, statusPath, admin, map[string]string{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, domain.StatusApproved, decodeData[domain.Event](t, resp).Status)

	resp = app.call(t, nil, http.MethodGet, "/api/events/votable", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	votable := decodeData[[]domain.Event](t, resp)
	require.Len(t, votable, 1)
	assert.Equal(t, event.ID, votable[0].ID)

	resp = app.call(t, nil, http.MethodGet, "/api/events?status=approved", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, decodeData[[]domain.Event](t, resp), 1)

	// 8. Approved events are frozen
	resp = app.call(t, nil, http.MethodPatch, statusPath, admin, map[string]string{"status": "pending"})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", resp.Error.Code)

	resp = app.call(t, nil, http.MethodPatch, statusPath, admin, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusBadRequest, resp.Status)

	resp = app.call(t, nil, http.MethodPut, "/api/events/"+event.ID.String(), owner, eventPayload(app, "Too late"))
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "EVENT_NOT_EDITABLE", resp.Error.Code)

	// 9. Approving again is a no-op
	resp = app.call(t, nil, http.MethodPatch, statusPath, admin, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, resp.Status)
}

func TestEventRejection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	owner := createUserAndToken(t, app.DB, domain.RoleGeneral)
	admin := createUserAndToken(t, app.DB, domain.RoleAdmin)

	resp := app.call(t, nil, http.MethodPost, "/api/events", owner, eventPayload(app, "Will it snow?"))
	require.Equal(t, http.StatusCreated, resp.Status)
	event := decodeData[domain.Event](t, resp)

	resp = app.call(t, nil, http.MethodPatch, fmt.Sprintf("/api/events/%s/status", event.ID), admin, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, domain.StatusRejected, decodeData[domain.Event](t, resp).Status)

	// Rejected events are hidden from the public
	resp = app.call(t, nil, http.MethodGet, "/api/events/"+event.ID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, resp.Status)

	resp = app.call(t, nil, http.MethodGet, "/api/events/votable", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, decodeData[[]domain.Event](t, resp))
}

func TestEventValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	owner := createUserAndToken(t, app.DB, domain.RoleGeneral)

	body := eventPayload(app, "")
	body["category"] = "Weather"
	body["outcomes"] = []string{"Only one"}
	body["resolution_date_time"] = app.Clock.Now().Add(-time.Hour).Format(time.RFC3339)

	resp := app.call(t, nil, http.MethodPost, "/api/events", owner, body)
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	for _, field := range []string{"title", "category", "outcomes", "resolution_date_time"} {
		assert.Contains(t, resp.Error.Fields, field)
	}

	var n int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM events").Scan(&n))
	assert.Zero(t, n)
}
