package s1_universe

import (
	"strings"
)

const (
	// DefaultSuffix is the BSE exchange suffix
	DefaultSuffix = ".BO"
	// DefaultBatchSize caps a default ranking request
	DefaultBatchSize = 20
)

// Instrument is one catalog entry
type Instrument struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// bseTopStocks is the default universe in ranking order.
// BAJAJFINSV appears twice; Select de-duplicates.
var bseTopStocks = []Instrument{
	{Ticker: "RELIANCE.BO", Name: "Reliance Industries", Sector: "Energy"},
	{Ticker: "TCS.BO", Name: "Tata Consultancy Services", Sector: "Information Technology"},
	{Ticker: "HDFCBANK.BO", Name: "HDFC Bank", Sector: "Financial Services"},
	{Ticker: "INFOSY.BO", Name: "Infosys", Sector: "Information Technology"},
	{Ticker: "WIPRO.BO", Name: "Wipro", Sector: "Information Technology"},
	{Ticker: "MARUTI.BO", Name: "Maruti Suzuki India", Sector: "Automobile"},
	{Ticker: "BAJAJFINSV.BO", Name: "Bajaj Finserv", Sector: "Financial Services"},
	{Ticker: "ICICIBANK.BO", Name: "ICICI Bank", Sector: "Financial Services"},
	{Ticker: "HDFC.BO", Name: "Housing Development Finance Corporation", Sector: "Financial Services"},
	{Ticker: "KOTAKBANK.BO", Name: "Kotak Mahindra Bank", Sector: "Financial Services"},
	{Ticker: "LT.BO", Name: "Larsen & Toubro", Sector: "Construction"},
	{Ticker: "ITC.BO", Name: "ITC", Sector: "FMCG"},
	{Ticker: "AXISBANK.BO", Name: "Axis Bank", Sector: "Financial Services"},
	{Ticker: "DMART.BO", Name: "Avenue Supermarts", Sector: "Retail"},
	{Ticker: "SUNPHARMA.BO", Name: "Sun Pharmaceutical Industries", Sector: "Healthcare"},
	{Ticker: "ASIANPAINT.BO", Name: "Asian Paints", Sector: "Consumer Durables"},
	{Ticker: "BHARTIARTL.BO", Name: "Bharti Airtel", Sector: "Telecommunication"},
	{Ticker: "ONGC.BO", Name: "Oil & Natural Gas Corporation", Sector: "Energy"},
	{Ticker: "JSWSTEEL.BO", Name: "JSW Steel", Sector: "Metals & Mining"},
	{Ticker: "TATASTEEL.BO", Name: "Tata Steel", Sector: "Metals & Mining"},
	{Ticker: "NTPC.BO", Name: "NTPC", Sector: "Power"},
	{Ticker: "POWERGRID.BO", Name: "Power Grid Corporation of India", Sector: "Power"},
	{Ticker: "SBILIFE.BO", Name: "SBI Life Insurance", Sector: "Financial Services"},
	{Ticker: "BAJAJFINSV.BO", Name: "Bajaj Finserv", Sector: "Financial Services"},
	{Ticker: "SBIN.BO", Name: "State Bank of India", Sector: "Financial Services"},
}

// Catalog is the investable universe with display metadata
// ⭐ SSOT: S1 유니버스는 여기서만
type Catalog struct {
	suffix      string
	instruments []Instrument
	byTicker    map[string]Instrument
}

// NewCatalog returns the BSE top-stocks catalog. suffix is appended to
// tickers given without an exchange suffix (default .BO).
func NewCatalog(suffix string) *Catalog {
	return NewCatalogWith(suffix, bseTopStocks)
}

// NewCatalogWith builds a catalog over custom instruments
func NewCatalogWith(suffix string, instruments []Instrument) *Catalog {
	if suffix == "" {
		suffix = DefaultSuffix
	}

	c := &Catalog{
		suffix:      suffix,
		instruments: make([]Instrument, len(instruments)),
		byTicker:    make(map[string]Instrument, len(instruments)),
	}
	for i, inst := range instruments {
		inst.Ticker = c.NormalizeTicker(inst.Ticker)
		c.instruments[i] = inst
		if _, ok := c.byTicker[inst.Ticker]; !ok {
			c.byTicker[inst.Ticker] = inst
		}
	}
	return c
}

// Suffix returns the exchange suffix
func (c *Catalog) Suffix() string {
	return c.suffix
}

// Instruments returns every catalog entry in order, duplicates included
func (c *Catalog) Instruments() []Instrument {
	out := make([]Instrument, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// Tickers returns every catalog ticker in order, duplicates included
func (c *Catalog) Tickers() []string {
	out := make([]string, len(c.instruments))
	for i, inst := range c.instruments {
		out[i] = inst.Ticker
	}
	return out
}

// Default returns the first batch distinct catalog tickers
func (c *Catalog) Default(batch int) []string {
	return c.Select(nil, batch)
}

// Select normalizes tickers, drops blanks and duplicates keeping the first
// occurrence, and caps the result to batch (batch <= 0 means DefaultBatchSize).
// An empty request selects from the catalog.
func (c *Catalog) Select(tickers []string, batch int) []string {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	if len(tickers) == 0 {
		tickers = c.Tickers()
	}

	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, min(batch, len(tickers)))
	for _, t := range tickers {
		t = c.NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == batch {
			break
		}
	}
	return out
}

// Lookup returns the catalog entry for ticker (suffix optional)
func (c *Catalog) Lookup(ticker string) (Instrument, bool) {
	inst, ok := c.byTicker[c.NormalizeTicker(ticker)]
	return inst, ok
}

// NormalizeTicker upper-cases ticker and appends the exchange suffix when
// the ticker carries none
func (c *Catalog) NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return ""
	}
	if !strings.Contains(t, ".") {
		t += strings.ToUpper(c.suffix)
	}
	return t
}

// Symbol strips the exchange suffix: RELIANCE.BO → RELIANCE
func Symbol(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.LastIndex(t, "."); i > 0 {
		return t[:i]
	}
	return t
}
