// Package countries holds the static country reference list.
package countries

// Country is one entry of the reference list
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var list = []Country{
	{Code: "AE", Name: "United Arab Emirates"},
	{Code: "AO", Name: "Angola"},
	{Code: "AR", Name: "Argentina"},
	{Code: "AU", Name: "Australia"},
	{Code: "BE", Name: "Belgium"},
	{Code: "BR", Name: "Brazil"},
	{Code: "CA", Name: "Canada"},
	{Code: "CD", Name: "Democratic Republic of the Congo"},
	{Code: "CG", Name: "Republic of the Congo"},
	{Code: "CN", Name: "China"},
	{Code: "DE", Name: "Germany"},
	{Code: "DK", Name: "Denmark"},
	{Code: "EG", Name: "Egypt"},
	{Code: "ES", Name: "Spain"},
	{Code: "FR", Name: "France"},
	{Code: "GA", Name: "Gabon"},
	{Code: "GB", Name: "United Kingdom"},
	{Code: "ID", Name: "Indonesia"},
	{Code: "IN", Name: "India"},
	{Code: "IT", Name: "Italy"},
	{Code: "JP", Name: "Japan"},
	{Code: "KR", Name: "South Korea"},
	{Code: "MX", Name: "Mexico"},
	{Code: "MY", Name: "Malaysia"},
	{Code: "NG", Name: "Nigeria"},
	{Code: "NL", Name: "Netherlands"},
	{Code: "NO", Name: "Norway"},
	{Code: "OM", Name: "Oman"},
	{Code: "PL", Name: "Poland"},
	{Code: "QA", Name: "Qatar"},
	{Code: "SA", Name: "Saudi Arabia"},
	{Code: "SG", Name: "Singapore"},
	{Code: "US", Name: "United States"},
	{Code: "ZA", Name: "South Africa"},
}

// All returns the full country list, ordered by code
func All() []Country {
	out := make([]Country, len(list))
	copy(out, list)
	return out
}
