package auth

import "context"

type contextKey string

const (
	contextKeyTenant contextKey = "auth.tenant_id"
	contextKeyRole   contextKey = "auth.role"
	contextKeyActor  contextKey = "auth.actor_id"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, tenantID string, role Role, actorID string) context.Context {
	ctx = context.WithValue(ctx, contextKeyTenant, tenantID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeyActor, actorID)
	return ctx
}

// TenantIDFromContext extracts tenant id from context.
func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyTenant)
	if tenantID, ok := value.(string); ok {
		return tenantID
	}
	return ""
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// ActorIDFromContext extracts the authenticated actor id from context.
func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyActor)
	if actorID, ok := value.(string); ok {
		return actorID
	}
	return ""
}
