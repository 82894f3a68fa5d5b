package rolegate

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// HealthService exposes the operational state of the assignment service:
// database reachability, connection pool pressure and transaction metrics.
type HealthService struct {
	*Service
}

// NewHealthService wraps a Service with the health monitoring surface.
func NewHealthService(service *Service) *HealthService {
	return &HealthService{Service: service}
}

// HealthReport is a point-in-time snapshot suitable for a readiness
// endpoint or an operational dashboard.
type HealthReport struct {
	Database     dbkit.HealthStatus `json:"database"`
	Pool         dbkit.PoolStats    `json:"pool"`
	Transactions TransactionMetrics `json:"transactions"`
	RolesDefined int                `json:"roles_defined"`
}

// Health checks the database connection. With a full DBKit handle the
// driver's own health check runs; inside a transaction or with another
// handle only reachability can be reported.
func (hs *HealthService) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := hs.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}

	status := dbkit.HealthStatus{Healthy: hs.IsHealthy(ctx)}
	if !status.Healthy {
		status.Error = "assignment store unreachable"
	}
	return status
}

// Report assembles the full snapshot in one call.
func (hs *HealthService) Report(ctx context.Context) HealthReport {
	return HealthReport{
		Database:     hs.Health(ctx),
		Pool:         hs.GetPoolStats(),
		Transactions: hs.GetTransactionMetrics(),
		RolesDefined: len(hs.catalog.Roles()),
	}
}

// IsHealthy reports whether the assignment store is reachable.
func (hs *HealthService) IsHealthy(ctx context.Context) bool {
	if db, ok := hs.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return hs.Ping(ctx) == nil
}

// Ping issues a minimal round trip against the assignment store.
func (hs *HealthService) Ping(ctx context.Context) error {
	var one int
	return hs.db.NewSelect().Model((*struct{})(nil)).ColumnExpr("1").Limit(1).Scan(ctx, &one)
}

// GetPoolStats returns connection pool statistics, or zero values when
// the handle does not own a pool.
func (hs *HealthService) GetPoolStats() dbkit.PoolStats {
	if db, ok := hs.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}
