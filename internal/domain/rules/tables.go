package rules

// CountryRule holds per-country trade restrictions. Restricted items and
// certificates are carried as data for the external certificate validator;
// the evaluator itself only enforces bans and the value ceiling.
type CountryRule struct {
	BannedKeywords       []string
	RestrictedKeywords   []string
	MaxValueUSD          float64
	RequiredCertificates []string
}

// HSRate is the authoritative rate for one HS code
type HSRate struct {
	Rate  float64
	Label string
}

// CategoryRate is a keyword-matched fallback rate
type CategoryRate struct {
	Rate     float64
	Keywords []string
}

// CountryTaxTable holds a country's tax rate definitions. HS-code matches
// take priority over category keywords; category iteration follows
// CategoryOrder (declaration order).
type CountryTaxTable struct {
	DefaultRate   float64
	HSCodeRates   map[string]HSRate
	CategoryOrder []string
	CategoryRates map[string]CategoryRate
}

// DefaultCountryRules returns the built-in trade restriction table
func DefaultCountryRules() map[string]CountryRule {
	return map[string]CountryRule{
		"russia": {
			BannedKeywords:       []string{"polythene", "plastic", "synthetic polymer"},
			RestrictedKeywords:   []string{"steel", "iron"},
			MaxValueUSD:          2350000,
			RequiredCertificates: []string{"phytosanitary", "quality_certificate"},
		},
		"china": {
			BannedKeywords:       []string{"cotton", "textile"},
			RestrictedKeywords:   []string{"electronics"},
			MaxValueUSD:          100000,
			RequiredCertificates: []string{"origin_certificate"},
		},
		"usa": {
			BannedKeywords:       []string{"certain_chemicals"},
			RestrictedKeywords:   []string{"food_products"},
			MaxValueUSD:          200000,
			RequiredCertificates: []string{"fda_approval"},
		},
		"india": {
			BannedKeywords:       []string{"gold", "silver"},
			RestrictedKeywords:   []string{"pharmaceuticals"},
			MaxValueUSD:          75000,
			RequiredCertificates: []string{"import_license"},
		},
	}
}

// DefaultTaxTables returns the built-in per-country tax rate tables
func DefaultTaxTables() map[string]CountryTaxTable {
	return map[string]CountryTaxTable{
		"russia": {
			DefaultRate: 20.0,
			HSCodeRates: map[string]HSRate{
				"870321": {Rate: 10.0, Label: "Passenger Cars"},
				"870322": {Rate: 10.0, Label: "Passenger Vehicles 1000-1500cc"},
				"870323": {Rate: 10.0, Label: "Passenger Vehicles 1500-3000cc"},
				"260111": {Rate: 5.0, Label: "Iron Ore Fines"},
				"260112": {Rate: 5.0, Label: "Iron Ore Agglomerated"},
				"720851": {Rate: 8.0, Label: "Steel Coils"},
				"720852": {Rate: 15.0, Label: "Steel Hot-Rolled"},
				"300490": {Rate: 50.0, Label: "Medicines/Pharmaceuticals"},
				"300410": {Rate: 50.0, Label: "Antibiotics"},
				"854231": {Rate: 18.0, Label: "Electronic Processors"},
				"847130": {Rate: 18.0, Label: "Laptops/Computers"},
			},
			CategoryOrder: []string{"automotive", "metals", "steel", "medicines", "electronics", "food"},
			CategoryRates: map[string]CategoryRate{
				"automotive":  {Rate: 10.0, Keywords: []string{"car", "vehicle", "automobile", "passenger"}},
				"metals":      {Rate: 5.0, Keywords: []string{"iron ore", "ore fines"}},
				"steel":       {Rate: 15.0, Keywords: []string{"steel", "coil", "hot-rolled"}},
				"medicines":   {Rate: 50.0, Keywords: []string{"medicine", "drug", "pharmaceutical", "antibiotic"}},
				"electronics": {Rate: 18.0, Keywords: []string{"electronic", "computer", "laptop", "processor"}},
				"food":        {Rate: 10.0, Keywords: []string{"food", "grain", "meat", "vegetable"}},
			},
		},
		"china": {
			DefaultRate: 13.0,
			HSCodeRates: map[string]HSRate{
				"870321": {Rate: 25.0, Label: "Passenger Cars"},
				"870322": {Rate: 25.0, Label: "Passenger Vehicles"},
				"260111": {Rate: 3.0, Label: "Iron Ore Fines"},
				"720851": {Rate: 13.0, Label: "Steel Coils"},
				"854231": {Rate: 13.0, Label: "Electronic Processors"},
				"520100": {Rate: 16.0, Label: "Cotton"},
			},
			CategoryOrder: []string{"automotive", "metals", "steel", "electronics", "textiles"},
			CategoryRates: map[string]CategoryRate{
				"automotive":  {Rate: 25.0, Keywords: []string{"car", "vehicle", "automobile"}},
				"metals":      {Rate: 3.0, Keywords: []string{"iron ore", "ore"}},
				"steel":       {Rate: 13.0, Keywords: []string{"steel", "coil"}},
				"electronics": {Rate: 13.0, Keywords: []string{"electronic", "computer"}},
				"textiles":    {Rate: 16.0, Keywords: []string{"cotton", "textile", "fabric"}},
			},
		},
		"usa": {
			DefaultRate: 0.0,
			HSCodeRates: map[string]HSRate{
				"870321": {Rate: 2.5, Label: "Passenger Cars"},
				"260111": {Rate: 0.0, Label: "Iron Ore Fines"},
				"720851": {Rate: 0.0, Label: "Steel Coils"},
				"300490": {Rate: 0.0, Label: "Medicines"},
			},
			CategoryOrder: []string{"automotive", "metals", "medicines"},
			CategoryRates: map[string]CategoryRate{
				"automotive": {Rate: 2.5, Keywords: []string{"car", "vehicle"}},
				"metals":     {Rate: 0.0, Keywords: []string{"iron", "steel", "metal"}},
				"medicines":  {Rate: 0.0, Keywords: []string{"medicine", "drug"}},
			},
		},
		"india": {
			DefaultRate: 18.0,
			HSCodeRates: map[string]HSRate{
				"870321": {Rate: 28.0, Label: "Passenger Cars"},
				"260111": {Rate: 5.0, Label: "Iron Ore Fines"},
				"720851": {Rate: 18.0, Label: "Steel Coils"},
				"300490": {Rate: 12.0, Label: "Medicines"},
				"710812": {Rate: 3.0, Label: "Gold"},
			},
			CategoryOrder: []string{"automotive", "metals", "steel", "medicines", "gold"},
			CategoryRates: map[string]CategoryRate{
				"automotive": {Rate: 28.0, Keywords: []string{"car", "vehicle", "automobile"}},
				"metals":     {Rate: 5.0, Keywords: []string{"iron ore", "ore"}},
				"steel":      {Rate: 18.0, Keywords: []string{"steel", "coil"}},
				"medicines":  {Rate: 12.0, Keywords: []string{"medicine", "drug", "pharmaceutical"}},
				"gold":       {Rate: 3.0, Keywords: []string{"gold", "silver", "precious"}},
			},
		},
	}
}
