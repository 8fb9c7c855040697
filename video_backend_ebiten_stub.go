//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "video:headless")
}

// NewEbitenOutput falls back to the in-memory backend in headless builds
func NewEbitenOutput() (VideoOutput, error) {
	return NewHeadlessOutput(), nil
}
