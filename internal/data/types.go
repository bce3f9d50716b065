package data

// FeatureColumns is the column order shared by training and inference.
var FeatureColumns = []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

const LabelColumn = "label"

type Measurements struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

type Sample struct {
	Measurements
	Label string `json:"label"`
}

type Dataset struct {
	Path    string
	Samples []Sample
}

func (d *Dataset) Len() int { return len(d.Samples) }

func (d *Dataset) Labels() []string {
	out := make([]string, len(d.Samples))
	for i, s := range d.Samples {
		out[i] = s.Label
	}
	return out
}
