//go:build integration

package integration

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/kbguard/internal/config"
	"github.com/agenthands/kbguard/internal/driver"
	"github.com/agenthands/kbguard/internal/store"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")
	cfg, err := config.Load("../../config/kbguard.toml")
	if err != nil {
		t.Logf("Config not found, using defaults: %v", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	if os.Getenv("KBGUARD_POSTGRES_DSN") == "" {
		t.Skip("KBGUARD_POSTGRES_DSN not set")
	}
	cfg := loadConfig(t)
	s, err := store.Open(context.Background(), cfg.Postgres, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func openGraph(t *testing.T) *driver.MemgraphDriver {
	t.Helper()
	if os.Getenv("KBGUARD_MEMGRAPH_URI") == "" {
		t.Skip("KBGUARD_MEMGRAPH_URI not set")
	}
	cfg := loadConfig(t)
	ctx := context.Background()
	d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph, nil)
	require.NoError(t, err)
	require.NoError(t, d.BuildIndices(ctx))
	t.Cleanup(func() { _ = d.Close(context.Background()) })
	return d
}

// uniqueID keeps runs against a shared database apart.
func uniqueID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// basis is a random direction plus a unit vector orthogonal to it. Random
// 64-dimensional directions are nearly orthogonal, so documents of other
// runs never pass the similarity floor.
type basis struct {
	axis, orth []float32
}

func newBasis() basis {
	const dim = 64
	axis := randomUnit(dim)
	orth := randomUnit(dim)
	var dot float64
	for i := range axis {
		dot += float64(axis[i] * orth[i])
	}
	for i := range orth {
		orth[i] -= float32(dot) * axis[i]
	}
	return basis{axis: axis, orth: normalize(orth)}
}

// at returns a vector whose cosine similarity with b.axis is cos.
func (b basis) at(cos float64) []float32 {
	sin := math.Sqrt(math.Max(0, 1-cos*cos))
	v := make([]float32, len(b.axis))
	for i := range v {
		v[i] = float32(cos)*b.axis[i] + float32(sin)*b.orth[i]
	}
	return v
}

func randomUnit(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rand.NormFloat64())
	}
	return normalize(v)
}

func normalize(v []float32) []float32 {
	var n float64
	for _, x := range v {
		n += float64(x * x)
	}
	n = math.Sqrt(n)
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return v
}
