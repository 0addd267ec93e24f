package nutrition

// Mode selects which kind of input the pipeline is estimating from
type Mode string

const (
	ModeText    Mode = "text"    // Free-text meal description
	ModeImage   Mode = "image"   // Meal photo
	ModeProfile Mode = "profile" // Questionnaire answers; daily needs instead of a meal
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	switch m {
	case ModeText, ModeImage, ModeProfile:
		return true
	}
	return false
}

// Shape selects between one aggregate record and one record per food item
type Shape string

const (
	ShapeSingle Shape = "single"
	ShapeList   Shape = "list"
)

// MealDescription is the caller-supplied input for one estimate
type MealDescription struct {
	Text      string      // ModeText
	Responses interface{} // ModeProfile: questionnaire answers of any JSON shape
	ImageData []byte      // ModeImage: raw bytes, used when ImageURL is empty
	ImageMIME string      // ModeImage: content type of ImageData
	ImageURL  string      // ModeImage: public http(s) URL or data: URL
}

// Macros holds macronutrient quantities in grams
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// Record is one validated nutrition estimate
type Record struct {
	Name     string  `json:"name,omitempty"`
	Calories float64 `json:"calories"`
	Macros   Macros  `json:"macros"`
}

// Estimate is the pipeline output. Exactly one of Record, Items or Analysis is meaningful.
type Estimate struct {
	Shape    Shape
	Record   *Record
	Items    []Record
	Analysis string // Freeform model text, set only by the vision fallback
}

// Body returns the JSON document served to API clients
func (e *Estimate) Body() interface{} {
	switch {
	case e.Analysis != "":
		return map[string]string{"analysis": e.Analysis}
	case e.Shape == ShapeList:
		items := e.Items
		if items == nil {
			items = []Record{}
		}
		return map[string][]Record{"items": items}
	default:
		return e.Record
	}
}

// TotalCalories sums calories across the estimate
func (e *Estimate) TotalCalories() float64 {
	if e.Record != nil {
		return e.Record.Calories
	}
	var total float64
	for _, item := range e.Items {
		total += item.Calories
	}
	return total
}
