package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/id"
)

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, entry *domain.AuditLog) error
}

// Recorder writes the audit trail. Every method is best-effort: a failed
// write is logged and swallowed so auditing never blocks the operation
// being audited.
type Recorder struct {
	repo Store
	now  func() time.Time
}

func NewRecorder(repo Store) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Created records a CREATE entry with the full attribute set of the new
// subject.
func (r *Recorder) Created(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{}) {
	r.append(ctx, &domain.AuditLog{
		Action:      domain.AuditActionCreate,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Description: description,
		NewValues:   values,
	})
}

// Updated diffs old against new and records an UPDATE entry restricted to the
// keys that actually changed. When nothing changed, no entry is written.
func (r *Recorder) Updated(ctx context.Context, subjectType, subjectID, description string, oldValues, newValues map[string]interface{}) {
	changedOld, changedNew := diff(oldValues, newValues)
	if len(changedNew) == 0 && len(changedOld) == 0 {
		return
	}
	r.append(ctx, &domain.AuditLog{
		Action:      domain.AuditActionUpdate,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Description: description,
		OldValues:   changedOld,
		NewValues:   changedNew,
	})
}

// Deleted records a DELETE entry with the subject's last known attributes.
func (r *Recorder) Deleted(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{}) {
	r.append(ctx, &domain.AuditLog{
		Action:      domain.AuditActionDelete,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Description: description,
		OldValues:   values,
	})
}

// Login records a successful authentication for the given user. The actor is
// the user themselves regardless of what the request context carries.
func (r *Recorder) Login(ctx context.Context, user *domain.User) {
	entry := &domain.AuditLog{
		Action:      domain.AuditActionLogin,
		SubjectType: "user",
		SubjectID:   user.UserID,
		Description: "User logged in: " + user.Email,
		UserID:      user.UserID,
		UserRole:    user.Role,
	}
	r.appendAsIs(ctx, entry)
}

// Logout records an explicit session termination.
func (r *Recorder) Logout(ctx context.Context, user *domain.User) {
	entry := &domain.AuditLog{
		Action:      domain.AuditActionLogout,
		SubjectType: "user",
		SubjectID:   user.UserID,
		Description: "User logged out: " + user.Email,
		UserID:      user.UserID,
		UserRole:    user.Role,
	}
	r.appendAsIs(ctx, entry)
}

// LoginFailed records a rejected login attempt. user is nil when the email
// matched no account; the entry is still written with no actor.
func (r *Recorder) LoginFailed(ctx context.Context, email string, user *domain.User) {
	entry := &domain.AuditLog{
		Action:      domain.AuditActionLoginFailed,
		SubjectType: "user",
		Description: "Failed login attempt for: " + email,
		UserRole:    "system",
	}
	if user != nil {
		entry.SubjectID = user.UserID
		entry.UserID = user.UserID
		entry.UserRole = user.Role
	}
	r.appendAsIs(ctx, entry)
}

// append stamps the actor from the request context before persisting.
func (r *Recorder) append(ctx context.Context, entry *domain.AuditLog) {
	m := MetaFromContext(ctx)
	entry.UserID = m.ActorID
	entry.UserRole = m.ActorRole
	if entry.UserRole == "" {
		entry.UserRole = "system"
	}
	r.appendAsIs(ctx, entry)
}

func (r *Recorder) appendAsIs(ctx context.Context, entry *domain.AuditLog) {
	m := MetaFromContext(ctx)
	entry.AuditID = id.New()
	entry.IPAddress = m.IPAddress
	entry.UserAgent = m.UserAgent
	entry.CreatedAt = r.now()
	if err := r.repo.Append(ctx, entry); err != nil {
		slog.Warn("audit append failed",
			"action", entry.Action,
			"subject_type", entry.SubjectType,
			"subject_id", entry.SubjectID,
			"error", err)
	}
}

// diff returns the old and new maps narrowed to keys whose values differ.
// Keys absent from old but present in new count as changes, and vice versa.
func diff(oldValues, newValues map[string]interface{}) (map[string]interface{}, map[string]interface{}) {
	changedOld := make(map[string]interface{})
	changedNew := make(map[string]interface{})
	for k, nv := range newValues {
		ov, ok := oldValues[k]
		if !ok || !reflect.DeepEqual(ov, nv) {
			if ok {
				changedOld[k] = ov
			}
			changedNew[k] = nv
		}
	}
	for k, ov := range oldValues {
		if _, ok := newValues[k]; !ok {
			changedOld[k] = ov
		}
	}
	if len(changedNew) == 0 && len(changedOld) == 0 {
		return nil, nil
	}
	return changedOld, changedNew
}

// Snapshot flattens an entity into the attribute map recorded on CREATE and
// DELETE entries. Fields tagged json:"-" (password hashes) never appear.
func Snapshot(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
