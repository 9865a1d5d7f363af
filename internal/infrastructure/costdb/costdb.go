package costdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

// record одна запись базы стоимостей ремонта.
type record struct {
	Brand               string  `json:"brand"`
	Model               string  `json:"model"`
	Year                int     `json:"year"`
	Variant             string  `json:"variant"`
	DamageType          string  `json:"damage_type"`
	EstimatedRepairCost float64 `json:"estimated_repair_cost"`
}

// Нормализация свободных формулировок модели к типам повреждений базы.
// Порядок важен: более специфичные формулировки идут первыми.
var damageTypeAliases = []struct {
	alias     string
	canonical string
}{
	{"paint chips", "Scratch"},
	{"paint chip", "Scratch"},
	{"scratches", "Scratch"},
	{"scratch", "Scratch"},
	{"dents", "Dent"},
	{"dent", "Dent"},
	{"cracks", "Crack"},
	{"crack", "Crack"},
	{"broken glass", "Glass Damage"},
	{"shattered", "Glass Damage"},
	{"glass", "Glass Damage"},
	{"bumper", "Bumper Damage"},
}

// Repository файловая база стоимостей ремонта по маркам и типам повреждений.
type Repository struct {
	records []record
	log     *zap.Logger
}

var _ port.CostRepository = (*Repository)(nil)

// Load читает базу из JSON-файла.
func Load(path string, log *zap.Logger) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cost database: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse cost database: %w", err)
	}

	log.Info("repair cost database loaded",
		zap.String("path", path),
		zap.Int("records", len(records)))
	return &Repository{records: records, log: log}, nil
}

// Lookup ищет стоимость ремонта. Сначала точное совпадение с вариантом
// комплектации, затем без него. Nil без ошибки означает отсутствие данных.
func (r *Repository) Lookup(ctx context.Context, q port.CostQuery) (*entity.RepairEstimate, error) {
	damageType := NormalizeDamageType(q.DamageType)

	if q.Variant != "" {
		if rec := r.find(q, damageType, true); rec != nil {
			return estimate(rec, q), nil
		}
	}
	if rec := r.find(q, damageType, false); rec != nil {
		return estimate(rec, q), nil
	}
	return nil, nil
}

func (r *Repository) find(q port.CostQuery, damageType string, withVariant bool) *record {
	for i := range r.records {
		rec := &r.records[i]
		if !strings.EqualFold(rec.Brand, q.Make) ||
			!strings.EqualFold(rec.Model, q.Model) ||
			!strings.EqualFold(rec.DamageType, damageType) {
			continue
		}
		if q.Year != 0 && rec.Year != 0 && rec.Year != q.Year {
			continue
		}
		if withVariant && !strings.EqualFold(rec.Variant, q.Variant) {
			continue
		}
		return rec
	}
	return nil
}

func estimate(rec *record, q port.CostQuery) *entity.RepairEstimate {
	vehicle := strings.TrimSpace(fmt.Sprintf("%s %s", q.Make, q.Model))
	return &entity.RepairEstimate{
		DamageType:    rec.DamageType,
		EstimatedCost: rec.EstimatedRepairCost,
		Currency:      "INR",
		Vehicle:       vehicle,
	}
}

// NormalizeDamageType приводит формулировку модели к типу повреждения базы.
// Сначала точное совпадение, затем частичное: "deep scratch on door"
// содержит "scratch".
func NormalizeDamageType(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range damageTypeAliases {
		if lower == a.alias {
			return a.canonical
		}
	}
	for _, a := range damageTypeAliases {
		if strings.Contains(lower, a.alias) {
			return a.canonical
		}
	}
	return capitalize(lower)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
