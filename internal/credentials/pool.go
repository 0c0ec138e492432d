package credentials

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// ReportFunc is handed out alongside a resolved credential. Callers invoke it
// with the outcome of the request that used the credential; quota-style
// failures flip the credential to exhausted so later resolutions skip it.
// Last-writer-wins on the status column is acceptable staleness.
type ReportFunc func(ctx context.Context, requestErr error)

// Resolver selects a usable API credential from the rotating pool before
// every outbound request to the first-party generation provider.
type Resolver struct {
	sql        infra.SQLExecutor
	defaultKey string
	logger     zerolog.Logger
}

func NewResolver(sql infra.SQLExecutor, defaultKey string, logger zerolog.Logger) *Resolver {
	return &Resolver{sql: sql, defaultKey: strings.TrimSpace(defaultKey), logger: logger}
}

// Resolve reads the pool fresh and returns the first active credential. When
// the pool is empty or has no active entry it falls back to the configured
// default key; when neither exists it fails with domain.ErrNoCredential so no
// unauthenticated request is ever sent.
func (r *Resolver) Resolve(ctx context.Context) (domain.CredentialRecord, func(ctx context.Context, requestErr error), error) {
	pool, err := r.listPool(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("credentials: pool read failed, falling back to default key")
	}
	for _, cred := range pool {
		if cred.Status != domain.CredentialActive {
			continue
		}
		return cred, r.reportFor(cred), nil
	}
	if r.defaultKey != "" {
		cred := domain.CredentialRecord{Secret: r.defaultKey, Label: "default", Status: domain.CredentialActive}
		return cred, func(context.Context, error) {}, nil
	}
	return domain.CredentialRecord{}, nil, domain.ErrNoCredential
}

func (r *Resolver) listPool(ctx context.Context) ([]domain.CredentialRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCredentialPool)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []domain.CredentialRecord
	for rows.Next() {
		var cred domain.CredentialRecord
		if err := rows.Scan(&cred.ID, &cred.Secret, &cred.Label, &cred.Status); err != nil {
			return nil, err
		}
		cred.Secret = strings.TrimSpace(cred.Secret)
		pool = append(pool, cred)
	}
	return pool, rows.Err()
}

func (r *Resolver) reportFor(cred domain.CredentialRecord) ReportFunc {
	return func(ctx context.Context, requestErr error) {
		if requestErr == nil || !IsQuotaError(requestErr) {
			return
		}
		if _, err := r.sql.Exec(ctx, sqlinline.QUpdateCredentialStatus, cred.ID, string(domain.CredentialExhausted)); err != nil {
			r.logger.Error().Err(err).Str("credential", cred.Label).Msg("credentials: failed to mark exhausted")
			return
		}
		r.logger.Warn().Str("credential", cred.Label).Msg("credentials: marked exhausted after quota error")
	}
}

// IsQuotaError reports whether the provider error looks like a rate-limit or
// quota exhaustion rather than a bad request.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"quota", "rate limit", "resource_exhausted", "status 429", "permission_denied", "status 403"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
