package config

// Default configuration values.
const (
	DefaultDataDir      = "data"
	DefaultDatabaseFile = ".spendlens/spendlens.db"
	DefaultListenAddr   = ":8080"
	DefaultOutputFormat = "table"
)

// Canonical phrase sets for metric classification. These match the survey's
// published line labels byte-exact (after whitespace normalization); the
// labels are in the source script and must never be transliterated.
var (
	defaultIncomeItems = []string{
		"הכנסה כספית ברוטו לחודש למשק בית",
		"הכנסה כספית נטו לחודש למשק בית",
	}

	defaultConsumptionItems = []string{
		"סך הכל הוצאה כספית לתצרוכת",
		"הוצאה כספית לתצרוכת לחודש למשק בית",
	}
)

// ApplyDefaults fills zero-valued fields of a Config.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabaseFile
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	if len(c.Classification.IncomeItems) == 0 {
		c.Classification.IncomeItems = append([]string(nil), defaultIncomeItems...)
	}
	if len(c.Classification.ConsumptionItems) == 0 {
		c.Classification.ConsumptionItems = append([]string(nil), defaultConsumptionItems...)
	}
}
