// Package ingest checks and maps financial statements produced by the tax return extractor.
package ingest

// Statement is the extractor output: company identity plus line-item tables
type Statement struct {
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
	CompanyInfo CompanyInfo `json:"companyInfo"`
	Tables      Tables      `json:"tables"`
}

// CompanyInfo is the identity block of a corporate tax return
type CompanyInfo struct {
	TaxID            string  `json:"taxId"`
	Email            string  `json:"email,omitempty"`
	TradeRegistryNo  string  `json:"tradeRegistryNo,omitempty"`
	CommercialProfit float64 `json:"commercialProfit,omitempty"`
}

// LineItems maps a Turkish line-item label to its TL amount
type LineItems map[string]float64

// Get returns the amount of label, 0 when absent
func (l LineItems) Get(label string) float64 {
	return l[label]
}

// Tables groups the statement sections by their extractor key
type Tables struct {
	Additions    LineItems `json:"ilaveler,omitempty"`
	TaxReturn    LineItems `json:"vergiBildirimi,omitempty"`
	OffsetTaxes  LineItems `json:"mahsupVergiler,omitempty"`
	Assets       LineItems `json:"aktif"`
	Liabilities  LineItems `json:"pasif"`
	IncomeReport LineItems `json:"gelirTablosu"`
}

// Line-item labels read from the tables
const (
	// aktif
	LabelTotalAssets   = "Toplam Aktif"
	LabelCurrentAssets = "Dönen Varlıklar"
	LabelCash          = "Nakit ve Nakit Benzerleri"
	LabelInventories   = "Stoklar"

	// pasif
	LabelTotalLiabilitiesAndEquity = "Toplam Pasif"
	LabelShortTermLiabilities      = "Kısa Vadeli Yükümlülükler"
	LabelLongTermLiabilities       = "Uzun Vadeli Yükümlülükler"
	LabelEquity                    = "Özkaynaklar"

	// gelirTablosu
	LabelGrossSales      = "Brüt Satışlar"
	LabelNetSales        = "Net Satışlar"
	LabelGrossProfit     = "Brüt Kar"
	LabelOperatingProfit = "Faaliyet Karı"
	LabelNetProfit       = "Net Dönem Karı"
	LabelFinanceExpenses = "Finansman Giderleri"
)
