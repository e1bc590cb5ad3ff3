package access

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AccessControlResolver answers role and permission questions for a user id.
// A missing profile resolves to the base user role rather than an error, so
// absence can never grant more than least privilege.
type AccessControlResolver struct {
	profiles     ProfileStore
	grants       GrantStore
	logger       Logger
	activitySink ActivitySink
}

// ResolverOption customizes the resolver.
type ResolverOption func(*AccessControlResolver)

// WithResolverLogger overrides the logger.
func WithResolverLogger(logger Logger) ResolverOption {
	return func(r *AccessControlResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolverActivitySink sets the sink used to publish denial events.
func WithResolverActivitySink(sink ActivitySink) ResolverOption {
	return func(r *AccessControlResolver) {
		r.activitySink = normalizeActivitySink(sink)
	}
}

// NewAccessControlResolver wires the resolver to its stores.
func NewAccessControlResolver(profiles ProfileStore, grants GrantStore, opts ...ResolverOption) *AccessControlResolver {
	r := &AccessControlResolver{
		profiles:     profiles,
		grants:       grants,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// GetRole reads the profile's role. No profile row means the base user role.
func (r *AccessControlResolver) GetRole(ctx context.Context, userID uuid.UUID) (Role, error) {
	profile, err := r.profiles.FindByID(ctx, userID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return RoleUser, nil
		}
		return "", err
	}

	role, _ := ParseRole(profile.Role)
	return role, nil
}

// IsAdmin reports whether the user holds the admin role.
func (r *AccessControlResolver) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	role, err := r.GetRole(ctx, userID)
	return role == RoleAdmin, err
}

// IsSubadmin reports whether the user holds the subadmin role.
func (r *AccessControlResolver) IsSubadmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	role, err := r.GetRole(ctx, userID)
	return role == RoleSubadmin, err
}

// HasPermission resolves the named flag for the user. Admins hold every flag
// with no grant lookup; subadmins need an active grant with the flag set;
// everyone else is denied. The check is monotonic: an inactive grant is false
// for every flag irrespective of individually-true values.
func (r *AccessControlResolver) HasPermission(ctx context.Context, userID uuid.UUID, flag PermissionFlag) (bool, error) {
	if !IsValidPermissionFlag(flag) {
		return false, unknownPermissionFlag(flag)
	}

	role, err := r.GetRole(ctx, userID)
	if err != nil {
		return false, err
	}

	switch role {
	case RoleAdmin:
		return true, nil
	case RoleSubadmin:
		grant, err := r.grants.FindByUserID(ctx, userID)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return grant.Allows(flag), nil
	default:
		return false, nil
	}
}

// RequirePermission fails with PermissionDenied unless the flag holds.
// Callers must treat the failure as a hard stop before any mutation proceeds.
func (r *AccessControlResolver) RequirePermission(ctx context.Context, userID uuid.UUID, flag PermissionFlag) error {
	ok, err := r.HasPermission(ctx, userID, flag)
	if err != nil {
		return err
	}

	if !ok {
		r.recordDenied(ctx, userID, map[string]any{"flag": flag})
		return permissionDenied(map[string]any{
			"user_id": userID.String(),
			"flag":    flag,
		})
	}

	return nil
}

// RequireAdmin fails with PermissionDenied unless the user is an admin.
func (r *AccessControlResolver) RequireAdmin(ctx context.Context, userID uuid.UUID) error {
	ok, err := r.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}

	if !ok {
		r.recordDenied(ctx, userID, map[string]any{"required_role": RoleAdmin})
		return permissionDenied(map[string]any{
			"user_id":       userID.String(),
			"required_role": RoleAdmin,
		})
	}

	return nil
}

func (r *AccessControlResolver) recordDenied(ctx context.Context, userID uuid.UUID, meta map[string]any) {
	recordActivity(ctx, r.activitySink, r.logger, ActivityEvent{
		EventType: ActivityEventPermissionDenied,
		UserID:    userID.String(),
		Metadata:  meta,
	})
}
