package entity

// DocumentType вид обрабатываемого документа.
type DocumentType string

const (
	DocumentEstimation  DocumentType = "estimation"
	DocumentVehicleInfo DocumentType = "vehicle_info"
)

// TableRow строка таблицы сметы: позиция и две суммы.
type TableRow struct {
	Description string `json:"description"`
	Estimate    string `json:"estimate"`
	Approved    string `json:"approved"`
}

// DocumentInfo метаданные документа.
type DocumentInfo struct {
	CompanyName     string `json:"company_name"`
	ReferenceNumber string `json:"reference_number"`
	DocumentDate    string `json:"document_date"`
	VehicleInfo     string `json:"vehicle_info"`
}

// Totals итоговые суммы по таблице сметы.
type Totals struct {
	EstimateTotal string `json:"estimate_total"`
	ApprovedTotal string `json:"approved_total"`
	GrandTotal    string `json:"grand_total"`
	Difference    string `json:"difference"`
}

// WordAnnotation слово с позицией на изображении (OCR).
type WordAnnotation struct {
	Text   string `json:"text"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExtractedText результат OCR: полный текст и пословные аннотации.
type ExtractedText struct {
	FullText string
	Words    []WordAnnotation
}

// DocumentResult итог обработки документа.
type DocumentResult struct {
	OCRProvider    string       `json:"ocr_provider"`
	Translator     string       `json:"translator,omitempty"`
	RawOCRText     string       `json:"raw_ocr_text"`
	TranslatedText string       `json:"translated_text"`
	SourceLanguage string       `json:"source_language"`
	TableData      []TableRow   `json:"table_data,omitempty"`
	DocumentInfo   DocumentInfo `json:"document_info"`
	Totals         Totals       `json:"totals,omitempty"`
}
