package gyms

// Point is a canvas coordinate.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Column is the horizontal extent of one table column.
type Column struct {
	X     int `yaml:"x" json:"x"`
	Width int `yaml:"width" json:"width"`
}

// Table is one 7-day table region of a canvas template.
type Table struct {
	Y         int    `yaml:"y" json:"y"`
	RowHeight int    `yaml:"row_height" json:"row_height"`
	Date      Column `yaml:"date" json:"date"`
	Location  Column `yaml:"location" json:"location"`
	Type      Column `yaml:"type" json:"type"`
	Setters   Column `yaml:"setters" json:"setters"`
}

// Template positions a schedule on a fixed-size canvas: a header and two
// side-by-side 7-day tables.
type Template struct {
	Width  int      `yaml:"width" json:"width"`
	Height int      `yaml:"height" json:"height"`
	Header Point    `yaml:"header" json:"header"`
	Tables [2]Table `yaml:"tables" json:"tables"`
}

// Template returns the gym's canvas template, or the registry default.
func (r *Registry) Template(code string) Template {
	if g, ok := r.Gym(code); ok && g.Template != nil {
		return *g.Template
	}
	return r.defaultTemplate
}

func fallbackTemplate() Template {
	t := Template{Width: 791, Height: 1024, Header: Point{X: 24, Y: 40}}
	for i := range t.Tables {
		off := i * 385
		t.Tables[i] = Table{
			Y:         700,
			RowHeight: 40,
			Date:      Column{X: 20 + off, Width: 70},
			Location:  Column{X: 92 + off, Width: 168},
			Type:      Column{X: 262 + off, Width: 82},
			Setters:   Column{X: 346 + off, Width: 40},
		}
	}
	return t
}
