package types

// Paper formats accepted in PageOptions.Format.
const (
	FormatA4     = "A4"
	FormatLetter = "Letter"
)

// Orientations accepted in PageOptions.Orientation.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margins holds CSS lengths for each page edge (e.g. "0.5cm", "10mm", "1in", "12px").
// Empty fields take the service default.
type Margins struct {
	// example: 0.5cm
	Top string `json:"top,omitempty" yaml:"top,omitempty" toml:"top,omitempty" example:"0.5cm"`
	// example: 0.5cm
	Right string `json:"right,omitempty" yaml:"right,omitempty" toml:"right,omitempty" example:"0.5cm"`
	// example: 0.5cm
	Bottom string `json:"bottom,omitempty" yaml:"bottom,omitempty" toml:"bottom,omitempty" example:"0.5cm"`
	// example: 0.5cm
	Left string `json:"left,omitempty" yaml:"left,omitempty" toml:"left,omitempty" example:"0.5cm"`
}

// PageOptions describes the page geometry of the exported document.
type PageOptions struct {
	// Paper format: A4 or Letter.
	// example: A4
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty" example:"A4"`
	// Page orientation: portrait or landscape.
	// example: portrait
	Orientation string `json:"orientation,omitempty" yaml:"orientation,omitempty" toml:"orientation,omitempty" example:"portrait"`
	// Page margins.
	Margins Margins `json:"margins,omitempty" yaml:"margins,omitempty" toml:"margins,omitempty"`
}
