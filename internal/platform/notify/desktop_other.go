//go:build !linux && !darwin

package notify

//nolint:ireturn // No desktop notifications on this platform.
func newDesktop() Indicator {
	return Noop{}
}
