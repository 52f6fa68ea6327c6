package tenancy

import "context"

type poolKey struct{}

// WithPool attaches the tenant pool selected for the current request
func WithPool(ctx context.Context, p *Pool) context.Context {
	return context.WithValue(ctx, poolKey{}, p)
}

// PoolFromContext returns the tenant pool attached by WithPool
func PoolFromContext(ctx context.Context) (*Pool, bool) {
	p, ok := ctx.Value(poolKey{}).(*Pool)
	return p, ok && p != nil
}
