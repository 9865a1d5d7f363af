// Package docparse разбирает распознанный текст сметных документов без
// участия языковых моделей: таблица позиций, метаданные и итоги
// извлекаются регулярными выражениями.
package docparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"damage-vision/internal/domain/entity"
)

// Позиции, встречающиеся в сметах на кузовной ремонт.
var partPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Front|Rear|Left|Right|LH|RH|L/H|R/H)\s*(?:Bumper|Buffer|Fender|Door|Panel|Light|Lamp|Mirror|Guard|Grill|Hood|Bonnet)`),
	regexp.MustCompile(`(?i)(?:Head|Tail|Fog|Day)\s*(?:Light|Lamp)s?`),
	regexp.MustCompile(`(?i)(?:Side\s*)?Mirror`),
	regexp.MustCompile(`(?i)Fender(?:\s*Lamp)?`),
	regexp.MustCompile(`(?i)Buffer(?:\s*Retainer)?`),
	regexp.MustCompile(`(?i)(?:Number\s*)?Plate(?:\s*Holder)?`),
	regexp.MustCompile(`(?i)Shell`),
	regexp.MustCompile(`(?i)Grill`),
	regexp.MustCompile(`(?i)Paint(?:ing)?`),
	regexp.MustCompile(`(?i)Polish`),
	regexp.MustCompile(`(?i)Labour`),
	regexp.MustCompile(`(?i)Material`),
	regexp.MustCompile(`(?i)Spare\s*Parts?`),
}

var (
	numberWithGroups = regexp.MustCompile(`\d{1,3}(?:,\d{3})*(?:\.\d{2})?`)
	simpleNumber     = regexp.MustCompile(`\d+(?:\.\d+)?`)

	numberedItem     = regexp.MustCompile(`^(\d+)[.)]\s*(.+)`)
	numericOnlyLine  = regexp.MustCompile(`^[\d,.\s/-]+$`)
	leadingItemIndex = regexp.MustCompile(`^\d+[.)]\s*`)
	trailingNumbers  = regexp.MustCompile(`[\d,.\s/-]+$`)
)

var companyKeywords = []string{"MOTOR", "AUTO", "SERVICE", "ENGINEERING", "GARAGE", "WORKSHOP"}

var refPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Est\.?\s*No\.?|Ref\.?\s*No\.?|Reference|Estimate\s*#?)[:\s]*([A-Z0-9/-]+)`),
	regexp.MustCompile(`(?i)(?:No\.?|#)[:\s]*(\d+)`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})`),
	regexp.MustCompile(`(\d{4}[/.-]\d{1,2}[/.-]\d{1,2})`),
}

var vehiclePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Reg\.?\s*No\.?|Vehicle\s*No\.?|Registration)[:\s]*([A-Z0-9-]+)`),
	// Регистрационный номер формата "ABC-1234".
	regexp.MustCompile(`([A-Z]{2,3}[-\s]?\d{4})`),
}

// Цены меньше этого порога считаются номерами позиций, а не суммами.
const minPrice = 100

// ExtractNumbers находит в строке все числовые подстроки с учётом
// разделителей тысяч и возвращает их без запятых, без повторов.
func ExtractNumbers(text string) []string {
	var numbers []string
	numbers = append(numbers, numberWithGroups.FindAllString(text, -1)...)
	numbers = append(numbers, simpleNumber.FindAllString(text, -1)...)

	seen := make(map[string]bool)
	cleaned := make([]string, 0, len(numbers))
	for _, n := range numbers {
		n = strings.ReplaceAll(n, ",", "")
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		cleaned = append(cleaned, n)
	}
	return cleaned
}

// ParseEstimationTable извлекает строки сметной таблицы из распознанного
// текста. Позиция распознаётся по словарю запчастей или по нумерации;
// суммы берутся из той же строки и числового продолжения на следующей.
func ParseEstimationTable(text string) []entity.TableRow {
	var rows []entity.TableRow
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		partName := ""
		for _, p := range partPatterns {
			if m := p.FindString(line); m != "" {
				partName = m
				break
			}
		}
		if m := numberedItem.FindStringSubmatch(line); m != nil {
			partName = strings.TrimSpace(m[2])
		}
		if partName == "" {
			continue
		}

		numbers := ExtractNumbers(line)
		if i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && numericOnlyLine.MatchString(next) {
				numbers = append(numbers, ExtractNumbers(next)...)
			}
		}

		var prices []string
		for _, n := range numbers {
			if v, err := strconv.ParseFloat(n, 64); err == nil && v >= minPrice {
				prices = append(prices, n)
			}
		}

		estimate, approved := "-", "-"
		switch {
		case len(prices) >= 2:
			estimate, approved = prices[0], prices[1]
		case len(prices) == 1:
			approved = prices[0]
		}

		partName = leadingItemIndex.ReplaceAllString(partName, "")
		partName = strings.TrimSpace(trailingNumbers.ReplaceAllString(partName, ""))
		if partName == "" {
			continue
		}

		rows = append(rows, entity.TableRow{
			Description: partName,
			Estimate:    estimate,
			Approved:    approved,
		})
	}
	return rows
}

// ExtractDocumentInfo извлекает метаданные документа: название компании
// из первых строк, номер сметы, дату и регистрационный номер автомобиля.
func ExtractDocumentInfo(text string) entity.DocumentInfo {
	var info entity.DocumentInfo

	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		for _, kw := range companyKeywords {
			if strings.Contains(upper, kw) {
				info.CompanyName = line
				break
			}
		}
		if info.CompanyName != "" {
			break
		}
	}

	for _, p := range refPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			info.ReferenceNumber = m[1]
			break
		}
	}
	for _, p := range datePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			info.DocumentDate = m[1]
			break
		}
	}
	for _, p := range vehiclePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			info.VehicleInfo = m[1]
			break
		}
	}

	return info
}

// CalculateTotals суммирует колонки таблицы. Grand total равен одобренной
// сумме, а при её отсутствии сметной.
func CalculateTotals(rows []entity.TableRow) entity.Totals {
	var estimateTotal, approvedTotal float64

	for _, row := range rows {
		if v, ok := parseAmount(row.Estimate); ok {
			estimateTotal += v
		}
		if v, ok := parseAmount(row.Approved); ok {
			approvedTotal += v
		}
	}

	totals := entity.Totals{
		EstimateTotal: "0.00",
		ApprovedTotal: "0.00",
		GrandTotal:    fmt.Sprintf("%.2f", estimateTotal),
		Difference:    fmt.Sprintf("%.2f", approvedTotal-estimateTotal),
	}
	if estimateTotal > 0 {
		totals.EstimateTotal = fmt.Sprintf("%.2f", estimateTotal)
	}
	if approvedTotal > 0 {
		totals.ApprovedTotal = fmt.Sprintf("%.2f", approvedTotal)
		totals.GrandTotal = fmt.Sprintf("%.2f", approvedTotal)
	}
	return totals
}

func parseAmount(s string) (float64, bool) {
	if s == "" || s == "-" || s == "✓" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "/-", "")
	s = strings.ReplaceAll(s, "/=", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
