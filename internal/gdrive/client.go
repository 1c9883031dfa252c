package gdrive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// listPageSize is the pageSize for changed-file listings.
const listPageSize = 100

// folderMimeType is the Drive MIME type that marks a folder.
const folderMimeType = "application/vnd.google-apps.folder"

// probeMimeType is the MIME type of throwaway probe files. A Docs document
// inherits workspace default visibility the same way regular uploads do.
const probeMimeType = "application/vnd.google-apps.document"

// Client wraps the Drive v3 service with the monitor's narrow operation
// set. All calls are single-shot: no retry, no backoff — failures surface
// to the caller, which logs and moves on.
type Client struct {
	svc    *drive.Service
	logger *slog.Logger
}

// NewClient builds a Drive client from the given service options (token
// source in production, endpoint + no-auth in tests).
func NewClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gdrive: creating service: %w", err)
	}

	return &Client{svc: svc, logger: logger}, nil
}

// ListChangedFiles returns the non-folder files modified after since,
// following continuation tokens until exhausted. Pages are concatenated in
// arrival order; the provider does not guarantee any ordering beyond that.
// On a page error the files accumulated so far are returned together with
// the error, so a mid-pagination failure still yields a usable prefix.
func (c *Client) ListChangedFiles(ctx context.Context, since time.Time) ([]FileRef, error) {
	query := fmt.Sprintf("modifiedTime > '%s' and mimeType != '%s'",
		since.UTC().Format(time.RFC3339), folderMimeType)

	var files []FileRef

	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(query).
			Spaces("drive").
			PageSize(listPageSize).
			Fields("nextPageToken", "files(id, name)").
			Context(ctx)

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return files, wrapErr("listing changed files", err)
		}

		for _, f := range resp.Files {
			files = append(files, FileRef{ID: f.Id, Name: f.Name})
		}

		c.logger.Debug("listed page of changed files",
			slog.Int("page_files", len(resp.Files)),
			slog.Int("total_files", len(files)),
			slog.Bool("more", resp.NextPageToken != ""),
		)

		if resp.NextPageToken == "" {
			return files, nil
		}

		pageToken = resp.NextPageToken
	}
}

// Permissions returns the permission list of a file or folder.
func (c *Client) Permissions(ctx context.Context, fileID string) ([]Permission, error) {
	resp, err := c.svc.Permissions.List(fileID).
		Fields("permissions(id, type, role, emailAddress)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("listing permissions for "+fileID, err)
	}

	return toPermissions(resp.Permissions), nil
}

// DeletePermission removes a single permission from a file.
func (c *Client) DeletePermission(ctx context.Context, fileID, permissionID string) error {
	err := c.svc.Permissions.Delete(fileID, permissionID).Context(ctx).Do()
	if err != nil {
		return wrapErr("deleting permission "+permissionID+" on "+fileID, err)
	}

	return nil
}

// ParentID returns the first parent folder of a file, or "" when the file
// has no parent (shared items and orphans legitimately have none).
func (c *Client) ParentID(ctx context.Context, fileID string) (string, error) {
	f, err := c.svc.Files.Get(fileID).
		Fields("parents").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapErr("fetching parents of "+fileID, err)
	}

	if len(f.Parents) == 0 {
		return "", nil
	}

	return f.Parents[0], nil
}

// CreateProbeFile creates a throwaway document. When ignoreDefaultVisibility
// is true the workspace's default sharing permission is suppressed, so the
// file carries only the creator-owner grant.
func (c *Client) CreateProbeFile(ctx context.Context, name string, ignoreDefaultVisibility bool) (*ProbeFile, error) {
	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: probeMimeType,
	}).
		IgnoreDefaultVisibility(ignoreDefaultVisibility).
		Fields("id, permissions").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("creating probe file "+name, err)
	}

	return &ProbeFile{ID: f.Id, Permissions: toPermissions(f.Permissions)}, nil
}

// DeleteFile permanently deletes a file (bypasses trash).
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return wrapErr("deleting file "+fileID, err)
	}

	return nil
}

// About returns the authorized account, used to cache the email in the
// credential store at login.
func (c *Client) About(ctx context.Context) (*Account, error) {
	resp, err := c.svc.About.Get().
		Fields("user(emailAddress, displayName)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapErr("fetching account info", err)
	}

	if resp.User == nil {
		return &Account{}, nil
	}

	return &Account{
		Email:       resp.User.EmailAddress,
		DisplayName: resp.User.DisplayName,
	}, nil
}

func toPermissions(perms []*drive.Permission) []Permission {
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		out = append(out, Permission{
			ID:    p.Id,
			Type:  p.Type,
			Role:  p.Role,
			Email: p.EmailAddress,
		})
	}

	return out
}
