package models

// Category is static reference data for item classification.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

const (
	CategoryWater         = "water"
	CategoryFood          = "food"
	CategoryMedical       = "medical"
	CategoryTools         = "tools"
	CategoryClothing      = "clothing"
	CategoryDocuments     = "documents"
	CategoryCommunication = "communication"
	CategoryHygiene       = "hygiene"
	CategoryOther         = "other"
)

var categories = []Category{
	{ID: CategoryWater, Name: "Su ve İçecekler", Icon: "local-drink", Color: "#4FC3F7"},
	{ID: CategoryFood, Name: "Gıda ve Atıştırmalık", Icon: "restaurant", Color: "#81C784"},
	{ID: CategoryMedical, Name: "Tıbbi Malzemeler", Icon: "medical-services", Color: "#E57373"},
	{ID: CategoryTools, Name: "Araç ve Ekipman", Icon: "build", Color: "#FFB74D"},
	{ID: CategoryClothing, Name: "Giyim", Icon: "checkroom", Color: "#BA68C8"},
	{ID: CategoryDocuments, Name: "Belgeler", Icon: "description", Color: "#4DB6AC"},
	{ID: CategoryCommunication, Name: "İletişim", Icon: "phone", Color: "#FF8A65"},
	{ID: CategoryHygiene, Name: "Hijyen", Icon: "soap", Color: "#90A4AE"},
	{ID: CategoryOther, Name: "Diğer", Icon: "category", Color: "#A1887F"},
}

var categoriesByID = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m
}()

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// UnknownCategory builds the display variant for an id outside the fixed set.
func UnknownCategory(id string) Category {
	return Category{ID: id, Name: "Bilinmeyen", Icon: "help-outline", Color: "#9E9E9E"}
}

// LookupCategory resolves id against the fixed set. Unknown ids yield
// UnknownCategory(id) and false.
func LookupCategory(id string) (Category, bool) {
	if c, ok := categoriesByID[id]; ok {
		return c, true
	}
	return UnknownCategory(id), false
}

// IsKnownCategory reports whether id belongs to the fixed set.
func IsKnownCategory(id string) bool {
	_, ok := categoriesByID[id]
	return ok
}
