package generator

// =============================================================================
// Faker data: Internet
// =============================================================================

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
}

// =============================================================================
// Faker data: Finance
// =============================================================================

// currencyCodes contains ISO 4217 currency codes.
var currencyCodes = []string{
	"USD", "EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY",
	"SEK", "NZD", "MXN", "SGD", "HKD", "NOK", "KRW", "BRL",
}

// ibanPrefix defines country code, total IBAN length, and a sample bank code.
type ibanPrefix struct {
	country    string
	length     int
	bankPrefix string
}

var ibanPrefixes = []ibanPrefix{
	{"GB", 22, "WEST"},
	{"DE", 22, "DEUT"},
	{"FR", 27, "BNPA"},
	{"ES", 24, "BBVA"},
	{"IT", 27, "UCRI"},
	{"NL", 18, "ABNA"},
}

// =============================================================================
// Faker data: Commerce
// =============================================================================

var productAdjectives = []string{
	"Rustic", "Elegant", "Handcrafted", "Refined", "Sleek",
	"Practical", "Modern", "Vintage", "Premium", "Compact",
	"Ergonomic", "Lightweight", "Durable",
}

var productMaterials = []string{
	"Steel", "Wooden", "Granite", "Rubber", "Cotton",
	"Leather", "Bamboo", "Bronze", "Copper", "Ceramic",
	"Glass", "Marble", "Titanium",
}

var productNouns = []string{
	"Chair", "Table", "Lamp", "Keyboard", "Mouse",
	"Backpack", "Watch", "Wallet", "Headphones", "Speaker",
	"Notebook", "Mug", "Bottle",
}

var colors = []string{
	"Crimson", "Azure", "Emerald", "Ivory", "Coral",
	"Indigo", "Amber", "Jade", "Scarlet", "Turquoise",
	"Lavender", "Maroon", "Teal", "Gold", "Silver",
}

// =============================================================================
// Faker data: Identity
// =============================================================================

var jobLevels = []string{"Senior", "Junior", "Lead", "Principal", "Staff"}

var jobFields = []string{
	"Software", "Data", "Product", "Marketing", "Sales",
	"Operations", "Security", "Infrastructure", "Quality", "Research",
}

var jobRoles = []string{
	"Engineer", "Analyst", "Manager", "Designer", "Architect",
	"Consultant", "Developer", "Specialist", "Coordinator", "Strategist",
}

// =============================================================================
// Faker data: Data/Files
// =============================================================================

var mimeTypes = []string{
	"application/json", "application/xml", "application/pdf",
	"application/zip", "application/octet-stream",
	"text/html", "text/plain", "text/csv",
	"image/png", "image/jpeg", "image/gif", "image/svg+xml",
	"audio/mpeg", "video/mp4",
}

var fileExtensions = []string{
	"pdf", "jpg", "png", "gif", "docx", "xlsx", "csv", "txt",
	"html", "json", "xml", "zip", "gz", "mp3", "mp4", "svg", "md", "yaml",
}

// =============================================================================
// Faker data: Text
// =============================================================================

// loremWords is shared by every locale.
var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing",
	"elit", "sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore",
	"et", "dolore", "magna", "aliqua", "enim", "minim", "veniam", "quis",
	"nostrud", "exercitation", "ullamco", "laboris", "nisi", "aliquip",
	"commodo", "consequat", "duis", "aute", "irure", "voluptate", "velit",
}
