// Package mask owns the bitmap layers of a panorama and composites them
// into the indexed mask images consumed by the synthesis stage.
//
// A Store serves one panorama's static masks and animated sequence frames
// from disk, hiding decode latency behind a bounded frame cache. The
// Compositor layers the currently active bitmaps in priority order and
// burns each layer's output index into a single-channel composite, which
// is persisted under an incrementing filename for the downstream consumer
// to poll.
package mask
