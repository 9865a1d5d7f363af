package costdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"damage-vision/internal/domain/port"
)

const testDB = `[
	{"brand": "Maruti Suzuki", "model": "Swift", "year": 2020, "variant": "VXi", "damage_type": "Dent", "estimated_repair_cost": 4500},
	{"brand": "Maruti Suzuki", "model": "Swift", "year": 2020, "variant": "ZXi", "damage_type": "Dent", "estimated_repair_cost": 5200},
	{"brand": "Maruti Suzuki", "model": "Swift", "year": 2020, "variant": "VXi", "damage_type": "Scratch", "estimated_repair_cost": 1800},
	{"brand": "Hyundai", "model": "i20", "year": 2021, "variant": "Sportz", "damage_type": "Bumper Damage", "estimated_repair_cost": 8000}
]`

func loadTestRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "costs.json")
	require.NoError(t, os.WriteFile(path, []byte(testDB), 0644))

	repo, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	return repo
}

func TestLookup_WithVariant(t *testing.T) {
	repo := loadTestRepo(t)

	est, err := repo.Lookup(context.Background(), port.CostQuery{
		Make: "Maruti Suzuki", Model: "Swift", Year: 2020, Variant: "ZXi", DamageType: "dent",
	})
	require.NoError(t, err)
	require.NotNil(t, est)
	require.Equal(t, 5200.0, est.EstimatedCost)
	require.Equal(t, "INR", est.Currency)
}

func TestLookup_FallsBackWithoutVariant(t *testing.T) {
	repo := loadTestRepo(t)

	est, err := repo.Lookup(context.Background(), port.CostQuery{
		Make: "Maruti Suzuki", Model: "Swift", Year: 2020, Variant: "LXi", DamageType: "Dent",
	})
	require.NoError(t, err)
	require.NotNil(t, est)
	require.Equal(t, 4500.0, est.EstimatedCost)
}

func TestLookup_NoMatch(t *testing.T) {
	repo := loadTestRepo(t)

	est, err := repo.Lookup(context.Background(), port.CostQuery{
		Make: "Toyota", Model: "Corolla", DamageType: "Dent",
	})
	require.NoError(t, err)
	require.Nil(t, est)
}

func TestLookup_NormalizesDamageType(t *testing.T) {
	repo := loadTestRepo(t)

	est, err := repo.Lookup(context.Background(), port.CostQuery{
		Make: "Maruti Suzuki", Model: "Swift", Year: 2020, DamageType: "deep scratches on door",
	})
	require.NoError(t, err)
	require.NotNil(t, est)
	require.Equal(t, "Scratch", est.DamageType)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/costs.json", zap.NewNop())
	require.Error(t, err)
}

func TestNormalizeDamageType(t *testing.T) {
	require.Equal(t, "Scratch", NormalizeDamageType("Paint Chips"))
	require.Equal(t, "Dent", NormalizeDamageType("large dent"))
	require.Equal(t, "Glass Damage", NormalizeDamageType("shattered windshield"))
	require.Equal(t, "Bumper Damage", NormalizeDamageType("bumper damage"))
	require.Equal(t, "Rust", NormalizeDamageType("rust"))
}
