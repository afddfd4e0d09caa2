// Package analysis measures rendered audio in the frequency domain.
//
// It is used off the audio path: by the render tool to report what a patch
// produced, and by tests to check oscillator and voice harmonic content.
package analysis
