package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// WizardIDKey is the context key for onboarding wizard identifiers.
	WizardIDKey contextKey = "wizard_id"

	// ActorKey is the context key for the acting user or service.
	ActorKey contextKey = "actor"

	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// TenantKey is the context key for tenant identifiers.
	TenantKey contextKey = "tenant"
)

// WithWizardID adds a wizard identifier to the context.
func WithWizardID(ctx context.Context, wizardID string) context.Context {
	return context.WithValue(ctx, WizardIDKey, wizardID)
}

// GetWizardID retrieves the wizard identifier from the context.
func GetWizardID(ctx context.Context) string {
	if wizardID, ok := ctx.Value(WizardIDKey).(string); ok {
		return wizardID
	}
	return ""
}

// WithActor adds the acting user or service to the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the acting user or service from the context.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithTenant adds a tenant identifier to the context.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, TenantKey, tenant)
}

// GetTenant retrieves the tenant identifier from the context.
func GetTenant(ctx context.Context) string {
	if tenant, ok := ctx.Value(TenantKey).(string); ok {
		return tenant
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if wizardID := GetWizardID(ctx); wizardID != "" {
		fields = append(fields, "wizard_id", wizardID)
	}
	if actor := GetActor(ctx); actor != "" {
		fields = append(fields, "actor", actor)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if tenant := GetTenant(ctx); tenant != "" {
		fields = append(fields, "tenant", tenant)
	}

	return fields
}
