package generator

import (
	"golang.org/x/text/language"
)

// localeData is the value domain of locale-sensitive fake values.
type localeData struct {
	tag         language.Tag
	firstNames  []string
	lastNames   []string
	familyFirst bool // render "Last First"

	streets      []string
	streetFormat string // %[1]s number, %[2]s street
	cities       []string
	states       []string
	country      string
	countries    []string
	postcode     string // '#' is a digit
	phone        string // '#' is a digit

	companyNames    []string
	companySuffixes []string
	emailDomains    []string
}

var (
	localeEN = &localeData{
		tag:             language.English,
		firstNames:      []string{"John", "Jane", "Alex", "Maria", "Sam", "Taylor", "Jordan", "Morgan", "Chris", "Emily"},
		lastNames:       []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Wilson", "Moore"},
		streets:         []string{"Main St", "Oak Ave", "Park Blvd", "Cedar Ln", "Elm St", "Maple Dr", "Pine Rd"},
		streetFormat:    "%[1]s %[2]s",
		cities:          []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "San Francisco", "Seattle", "Austin", "Denver", "Boston"},
		states:          []string{"California", "Texas", "New York", "Florida", "Illinois", "Washington", "Colorado", "Massachusetts"},
		country:         "United States",
		countries:       []string{"United States", "United Kingdom", "Canada", "Germany", "France", "Japan", "Australia"},
		postcode:        "#####",
		phone:           "+1-555-###-####",
		companyNames:    []string{"Acme", "Globex", "Initech", "Umbrella", "Stark", "Wayne", "Pied Piper"},
		companySuffixes: []string{"Corp", "Inc", "LLC", "Ltd", "Group"},
		emailDomains:    []string{"example.com", "test.io", "demo.org"},
	}

	localeDE = &localeData{
		tag:             language.German,
		firstNames:      []string{"Lukas", "Anna", "Jonas", "Lea", "Felix", "Marie", "Paul", "Sophie", "Jürgen", "Käthe"},
		lastNames:       []string{"Müller", "Schmidt", "Schneider", "Fischer", "Weber", "Meyer", "Wagner", "Becker", "Schulz", "Hoffmann"},
		streets:         []string{"Hauptstraße", "Bahnhofstraße", "Gartenweg", "Schulstraße", "Lindenallee", "Bergstraße"},
		streetFormat:    "%[2]s %[1]s",
		cities:          []string{"Berlin", "Hamburg", "München", "Köln", "Frankfurt am Main", "Stuttgart", "Düsseldorf", "Leipzig"},
		states:          []string{"Bayern", "Berlin", "Hessen", "Sachsen", "Niedersachsen", "Nordrhein-Westfalen"},
		country:         "Deutschland",
		countries:       []string{"Deutschland", "Österreich", "Schweiz", "Frankreich", "Italien", "Spanien"},
		postcode:        "#####",
		phone:           "+49 ### #######",
		companyNames:    []string{"Nordwind", "Alpenblick", "Rheingold", "Sonnenfeld", "Eichenhof"},
		companySuffixes: []string{"GmbH", "AG", "KG", "GmbH & Co. KG"},
		emailDomains:    []string{"beispiel.de", "example.de", "test.de"},
	}

	localeFR = &localeData{
		tag:             language.French,
		firstNames:      []string{"Louis", "Camille", "Hugo", "Léa", "Gabriel", "Chloé", "Jules", "Manon", "Théo", "Inès"},
		lastNames:       []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand", "Lefèvre", "Moreau"},
		streets:         []string{"rue de la Paix", "avenue Victor Hugo", "boulevard Saint-Michel", "rue du Moulin", "place de la République"},
		streetFormat:    "%[1]s %[2]s",
		cities:          []string{"Paris", "Marseille", "Lyon", "Toulouse", "Nice", "Nantes", "Strasbourg", "Bordeaux"},
		states:          []string{"Île-de-France", "Provence-Alpes-Côte d'Azur", "Occitanie", "Bretagne", "Normandie"},
		country:         "France",
		countries:       []string{"France", "Belgique", "Suisse", "Canada", "Allemagne", "Espagne"},
		postcode:        "#####",
		phone:           "+33 # ## ## ## ##",
		companyNames:    []string{"Lumière", "Boulangerie Dupont", "Atelier Azur", "Rive Gauche", "Montmartre"},
		companySuffixes: []string{"SA", "SARL", "SAS"},
		emailDomains:    []string{"exemple.fr", "example.fr", "test.fr"},
	}

	localeES = &localeData{
		tag:             language.Spanish,
		firstNames:      []string{"Hugo", "Lucía", "Martín", "Sofía", "Mateo", "Martina", "Pablo", "Valeria", "José", "Carmen"},
		lastNames:       []string{"García", "Rodríguez", "González", "Fernández", "López", "Martínez", "Sánchez", "Pérez", "Gómez", "Díaz"},
		streets:         []string{"Calle Mayor", "Avenida de la Constitución", "Calle del Sol", "Paseo del Prado", "Plaza de España"},
		streetFormat:    "%[2]s, %[1]s",
		cities:          []string{"Madrid", "Barcelona", "Valencia", "Sevilla", "Zaragoza", "Málaga", "Bilbao", "Granada"},
		states:          []string{"Andalucía", "Cataluña", "Comunidad de Madrid", "Galicia", "País Vasco", "Aragón"},
		country:         "España",
		countries:       []string{"España", "México", "Argentina", "Colombia", "Chile", "Perú"},
		postcode:        "#####",
		phone:           "+34 ### ### ###",
		companyNames:    []string{"Sol y Mar", "Olivares", "Hispania", "Alhambra", "Costa Brava"},
		companySuffixes: []string{"S.A.", "S.L.", "y Asociados"},
		emailDomains:    []string{"ejemplo.es", "example.es", "test.es"},
	}

	localeJA = &localeData{
		tag:             language.Japanese,
		firstNames:      []string{"翔太", "陽菜", "大翔", "結衣", "蓮", "さくら", "悠真", "美咲"},
		lastNames:       []string{"佐藤", "鈴木", "高橋", "田中", "伊藤", "渡辺", "山本", "中村"},
		familyFirst:     true,
		streets:         []string{"千代田", "中央", "港", "新宿", "渋谷", "本町"},
		streetFormat:    "%[2]s%[1]s",
		cities:          []string{"東京", "大阪", "横浜", "名古屋", "札幌", "福岡", "神戸", "京都"},
		states:          []string{"東京都", "大阪府", "神奈川県", "愛知県", "北海道", "福岡県"},
		country:         "日本",
		countries:       []string{"日本", "アメリカ合衆国", "中国", "韓国", "イギリス", "フランス"},
		postcode:        "###-####",
		phone:           "0#0-####-####",
		companyNames:    []string{"山田", "日本", "東洋", "富士", "未来"},
		companySuffixes: []string{"株式会社", "有限会社", "商事"},
		emailDomains:    []string{"example.jp", "test.jp", "rei.jp"},
	}

	localePTBR = &localeData{
		tag:             language.BrazilianPortuguese,
		firstNames:      []string{"Miguel", "Helena", "Arthur", "Alice", "Heitor", "Laura", "João", "Júlia", "Gabriel", "Beatriz"},
		lastNames:       []string{"Silva", "Santos", "Oliveira", "Souza", "Rodrigues", "Ferreira", "Alves", "Pereira", "Lima", "Gonçalves"},
		streets:         []string{"Rua das Flores", "Avenida Paulista", "Rua São João", "Avenida Atlântica", "Rua XV de Novembro"},
		streetFormat:    "%[2]s, %[1]s",
		cities:          []string{"São Paulo", "Rio de Janeiro", "Belo Horizonte", "Salvador", "Curitiba", "Recife", "Porto Alegre", "Brasília"},
		states:          []string{"São Paulo", "Rio de Janeiro", "Minas Gerais", "Bahia", "Paraná", "Pernambuco"},
		country:         "Brasil",
		countries:       []string{"Brasil", "Portugal", "Argentina", "Uruguai", "Chile", "Angola"},
		postcode:        "#####-###",
		phone:           "+55 ## #####-####",
		companyNames:    []string{"Horizonte", "Ipiranga", "Bandeirantes", "Cruzeiro", "Aurora"},
		companySuffixes: []string{"Ltda.", "S.A.", "e Filhos"},
		emailDomains:    []string{"exemplo.com.br", "example.com.br", "teste.com.br"},
	}
)

// locales is ordered by preference; the first entry is the fallback.
var locales = []*localeData{localeEN, localeDE, localeFR, localeES, localeJA, localePTBR}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// matchLocale picks the closest supported locale, falling back to English.
func matchLocale(tag language.Tag) *localeData {
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return localeEN
	}
	return locales[idx]
}

// SupportedLocales lists the locales with their own data sets.
func SupportedLocales() []string {
	out := make([]string, len(locales))
	for i, l := range locales {
		out[i] = l.tag.String()
	}
	return out
}
