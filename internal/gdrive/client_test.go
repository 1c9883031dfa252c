package gdrive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := NewClient(context.Background(), testLogger(),
		option.WithoutAuthentication(),
		option.WithEndpoint(baseURL),
	)
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error": {"code": %d, "message": %q}}`, status, message)
}

func TestListChangedFiles_SinglePage(t *testing.T) {
	since := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/files", r.URL.Path)

		q := r.URL.Query().Get("q")
		assert.Contains(t, q, "modifiedTime > '2025-03-01T12:00:00Z'")
		assert.Contains(t, q, "mimeType != 'application/vnd.google-apps.folder'")
		assert.Equal(t, "drive", r.URL.Query().Get("spaces"))

		writeJSON(t, w, `{"files": [
			{"id": "f1", "name": "report.pdf"},
			{"id": "f2", "name": "notes.txt"}
		]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	files, err := client.ListChangedFiles(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, FileRef{ID: "f1", Name: "report.pdf"}, files[0])
	assert.Equal(t, FileRef{ID: "f2", Name: "notes.txt"}, files[1])
}

func TestListChangedFiles_FollowsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pageToken") {
		case "":
			writeJSON(t, w, `{"files": [{"id": "a", "name": "a"}, {"id": "b", "name": "b"}],
				"nextPageToken": "page-2"}`)
		case "page-2":
			writeJSON(t, w, `{"files": [{"id": "c", "name": "c"}], "nextPageToken": "page-3"}`)
		case "page-3":
			writeJSON(t, w, `{"files": [{"id": "d", "name": "d"}]}`)
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	files, err := client.ListChangedFiles(context.Background(), time.Now().Add(-time.Minute))
	require.NoError(t, err)

	// All pages concatenated in arrival order, no duplicates, no omissions.
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestListChangedFiles_MidPaginationErrorReturnsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(t, w, `{"files": [{"id": "a", "name": "a"}], "nextPageToken": "page-2"}`)
			return
		}

		writeAPIError(w, http.StatusInternalServerError, "backend unavailable")
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	files, err := client.ListChangedFiles(context.Background(), time.Now().Add(-time.Minute))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)

	// The first page survives the second page's failure.
	require.Len(t, files, 1)
	assert.Equal(t, "a", files[0].ID)
}

func TestPermissions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/files/file-1/permissions", r.URL.Path)

		writeJSON(t, w, `{"permissions": [
			{"id": "p1", "type": "user", "role": "owner", "emailAddress": "alice@example.com"},
			{"id": "p2", "type": "anyone", "role": "reader"}
		]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	perms, err := client.Permissions(context.Background(), "file-1")
	require.NoError(t, err)
	require.Len(t, perms, 2)
	assert.Equal(t, Permission{ID: "p1", Type: "user", Role: "owner", Email: "alice@example.com"}, perms[0])
	assert.False(t, perms[0].IsPublic())
	assert.True(t, perms[1].IsPublic())
	assert.True(t, AnyPublic(perms))
}

func TestPermissions_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusNotFound, "File not found")
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	perms, err := client.Permissions(context.Background(), "gone")
	assert.Nil(t, perms)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestDeletePermission(t *testing.T) {
	var deleted bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/files/file-1/permissions/perm-9", r.URL.Path)
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	require.NoError(t, client.DeletePermission(context.Background(), "file-1", "perm-9"))
	assert.True(t, deleted)
}

func TestDeletePermission_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusForbidden, "The user does not have sufficient permissions")
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.DeletePermission(context.Background(), "file-1", "perm-9")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestParentID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/file-1", r.URL.Path)
		writeJSON(t, w, `{"parents": ["folder-7", "folder-8"]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	parent, err := client.ParentID(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, "folder-7", parent)
}

func TestParentID_NoParents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, `{}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	parent, err := client.ParentID(context.Background(), "orphan")
	require.NoError(t, err)
	assert.Empty(t, parent)
}

func TestCreateProbeFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("ignoreDefaultVisibility"))

		writeJSON(t, w, `{"id": "probe-1", "permissions": [
			{"id": "p-owner", "type": "user", "role": "owner", "emailAddress": "alice@example.com"}
		]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	probe, err := client.CreateProbeFile(context.Background(), "probe-file", true)
	require.NoError(t, err)
	assert.Equal(t, "probe-1", probe.ID)
	require.Len(t, probe.Permissions, 1)
	assert.Equal(t, "p-owner", probe.Permissions[0].ID)
}

func TestDeleteFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/files/probe-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	require.NoError(t, client.DeleteFile(context.Background(), "probe-1"))
}

func TestAbout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/about", r.URL.Path)
		writeJSON(t, w, `{"user": {"emailAddress": "alice@example.com", "displayName": "Alice"}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	account, err := client.About(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "Alice", account.DisplayName)
}

func TestAbout_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "Invalid Credentials")
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.About(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}
