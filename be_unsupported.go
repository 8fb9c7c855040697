//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// The audio callback hands float32 samples to oto as raw Float32LE bytes and
// the IE32 image format is little-endian throughout.
var _ = "TeenyTurtle requires a little-endian architecture" + 1
