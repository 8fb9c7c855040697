//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "audio:silent")
}

// OtoPlayer without a sound device; Read renders and discards
type OtoPlayer struct {
	started bool
	source  SampleSource
	buf     []float32
}

func NewAudioOutput(sampleRate int, source SampleSource) (AudioOutput, error) {
	return &OtoPlayer{source: source}, nil
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	if op.source != nil {
		if len(op.buf) < len(p)/4 {
			op.buf = make([]float32, len(p)/4)
		}
		op.source.Render(op.buf[:len(p)/4])
	}
	clear(p)
	return len(p), nil
}

func (op *OtoPlayer) Start() {
	op.started = true
}

func (op *OtoPlayer) Stop() {
	op.started = false
}

func (op *OtoPlayer) Close() {
	op.started = false
}

func (op *OtoPlayer) IsStarted() bool {
	return op.started
}
