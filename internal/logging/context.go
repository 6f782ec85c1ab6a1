package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPackageID is the standardized structured logging key for package identifiers.
	FieldPackageID = "package_id"
	// FieldCompanyID is the standardized structured logging key for company identifiers.
	FieldCompanyID = "company_id"
	// FieldStep is the standardized structured logging key for bundling step names.
	FieldStep = "step"
)

type contextKey int

const (
	packageIDKey contextKey = iota
	companyIDKey
)

// WithPackageID annotates ctx with the package identifier for log correlation.
func WithPackageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, packageIDKey, id)
}

// WithCompanyID annotates ctx with the company identifier for log correlation.
func WithCompanyID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, companyIDKey, id)
}

// PackageIDFromContext extracts a package identifier previously stored with WithPackageID.
func PackageIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(packageIDKey).(string)
	return id, ok
}

// CompanyIDFromContext extracts a company identifier previously stored with WithCompanyID.
func CompanyIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(companyIDKey).(int64)
	return id, ok
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := PackageIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPackageID, id))
	}
	if id, ok := CompanyIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldCompanyID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
