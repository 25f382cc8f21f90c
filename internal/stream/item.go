package stream

// Item is one element of a data stream: a numeric measurement tagged
// with the series it belongs to.
//
// Seq is the logical position assigned by the session clock when the
// item is consumed; items built directly from scenario files carry
// Seq 0 until fed.
type Item struct {
	Series string  `yaml:"series"`
	Value  float64 `yaml:"value"`
	Seq    int64   `yaml:"-"`
}
