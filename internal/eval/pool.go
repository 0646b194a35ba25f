package eval

// PoolConfig bounds a ContextPool.
type PoolConfig struct {
	// InitialSize is the number of scopes preallocated at construction.
	InitialSize int
	// MaxSize caps how many released scopes are retained; overflow is
	// discarded.
	MaxSize int
}

// DefaultPoolConfig mirrors the pool bounds used by the executors.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{InitialSize: 16, MaxSize: 1024}
}

// ContextPool is a freelist of reusable scopes. Reusing a scope's backing
// map amortizes allocation across many row evaluations. Not safe for
// concurrent use; each executor owns its own pool.
type ContextPool struct {
	free   []*Context
	config PoolConfig
}

// NewContextPool preallocates config.InitialSize scopes.
func NewContextPool(config PoolConfig) *ContextPool {
	free := make([]*Context, 0, config.InitialSize)
	for i := 0; i < config.InitialSize; i++ {
		free = append(free, NewContext())
	}
	return &ContextPool{free: free, config: config}
}

// Acquire pops a cleared scope, allocating a fresh one when the pool is
// empty. The returned scope is always empty.
func (p *ContextPool) Acquire() *Context {
	if n := len(p.free); n > 0 {
		ctx := p.free[n-1]
		p.free = p.free[:n-1]
		ctx.Reset()
		return ctx
	}
	return NewContext()
}

// Release returns a scope to the pool, discarding it once MaxSize scopes
// are already retained.
func (p *ContextPool) Release(ctx *Context) {
	if ctx == nil {
		return
	}
	if len(p.free) < p.config.MaxSize {
		p.free = append(p.free, ctx)
	}
}

// Available reports how many scopes are currently pooled.
func (p *ContextPool) Available() int {
	return len(p.free)
}

// Clear drops every pooled scope.
func (p *ContextPool) Clear() {
	p.free = p.free[:0]
}
