package models

import "time"

// Category is the display technology of a product.
type Category string

const (
	CategoryLCD    Category = "LCD"
	CategoryAMOLED Category = "AMOLED"
	CategoryOLED   Category = "OLED"
	CategoryEPaper Category = "E-Paper"
	CategoryTFT    Category = "TFT"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{CategoryLCD, CategoryAMOLED, CategoryOLED, CategoryEPaper, CategoryTFT}

// IsValid reports whether c is one of the accepted categories. Matching is exact.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Field names used by candidate rows, JSON payloads and import templates.
const (
	FieldName        = "name"
	FieldModel       = "model"
	FieldCategory    = "category"
	FieldColor       = "color"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldImage       = "image"
	FieldPartNumber  = "partNumber"
)

// ImportFields is the column order used for templates.
var ImportFields = []string{
	FieldName, FieldModel, FieldCategory, FieldColor,
	FieldPartNumber, FieldDescription, FieldPrice, FieldImage,
}

// Product is a persisted catalog entry.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Model       string    `json:"model" bson:"model"`
	Category    Category  `json:"category" bson:"category"`
	Color       string    `json:"color" bson:"color"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	Image       string    `json:"image" bson:"image"`
	PartNumber  string    `json:"partNumber" bson:"part_number"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// ProductRecord is a validated candidate that has not been persisted yet.
type ProductRecord struct {
	Name        string   `json:"name"`
	Model       string   `json:"model"`
	Category    Category `json:"category"`
	Color       string   `json:"color"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Image       string   `json:"image,omitempty"`
	PartNumber  string   `json:"partNumber"`
}

// ProductInput is one loosely typed candidate row as received from JSON, CSV or XLSX.
// Values may be missing or of the wrong type; the validator reports both cases.
type ProductInput map[string]any

// String returns the value under key when it is a string.
func (in ProductInput) String(key string) string {
	s, _ := in[key].(string)
	return s
}

// Record converts an input that already passed validation into a typed record.
func (in ProductInput) Record() ProductRecord {
	price, _ := NumberValue(in[FieldPrice])
	return ProductRecord{
		Name:        in.String(FieldName),
		Model:       in.String(FieldModel),
		Category:    Category(in.String(FieldCategory)),
		Color:       in.String(FieldColor),
		Description: in.String(FieldDescription),
		Price:       price,
		Image:       in.String(FieldImage),
		PartNumber:  in.String(FieldPartNumber),
	}
}

// Input turns a persisted product back into a candidate row, used when an update
// merges changes into the stored state before validation.
func (p Product) Input() ProductInput {
	return ProductInput{
		FieldName:        p.Name,
		FieldModel:       p.Model,
		FieldCategory:    string(p.Category),
		FieldColor:       p.Color,
		FieldDescription: p.Description,
		FieldPrice:       p.Price,
		FieldImage:       p.Image,
		FieldPartNumber:  p.PartNumber,
	}
}
