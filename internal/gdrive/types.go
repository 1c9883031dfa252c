package gdrive

// GrantTypeAnyone is the Drive permission type that grants access to any
// requester, authenticated or not — the "public" grant this daemon hunts.
const GrantTypeAnyone = "anyone"

// FileRef identifies a file returned by a changed-files listing. Transient:
// produced fresh each poll cycle, never persisted.
type FileRef struct {
	ID   string
	Name string
}

// Permission is one entry of a file's or folder's permission list.
type Permission struct {
	ID    string
	Type  string // "anyone", "user", "domain", "group"
	Role  string // "reader", "writer", "owner", ...
	Email string // empty for "anyone" grants
}

// IsPublic reports whether this permission is a public grant.
func (p Permission) IsPublic() bool {
	return p.Type == GrantTypeAnyone
}

// AnyPublic reports whether at least one permission in the list is a
// public grant.
func AnyPublic(perms []Permission) bool {
	for _, p := range perms {
		if p.IsPublic() {
			return true
		}
	}

	return false
}

// ProbeFile is a throwaway file created by the default-visibility probe,
// carrying the permissions the provider attached at creation time.
type ProbeFile struct {
	ID          string
	Permissions []Permission
}

// Account describes the authorized user, fetched once at login and cached
// in the credential store.
type Account struct {
	Email       string
	DisplayName string
}
