//go:build !((linux && cgo) || windows || darwin)

package audio

// AudioAvailable indicates whether a real output device is compiled in.
// Speaker output requires cgo on linux.
const AudioAvailable = false

// NewEngine returns the best engine available in this build.
func NewEngine() Engine {
	return NewSilentEngine(nil)
}
