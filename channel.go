package spmstitch

// ChannelLabel names a recognized SPM image channel, recovered from the
// original SpmImage::ImageType enumeration. Callers may still request any
// raw label string directly; these constants exist only for convenience
// and for callers that want compile-time-checked channel names.
type ChannelLabel string

const (
	ChannelHeight         ChannelLabel = "Height"
	ChannelHeightSensor   ChannelLabel = "HeightSensor"
	ChannelHeightTrace    ChannelLabel = "HeightTrace"
	ChannelHeightRetrace  ChannelLabel = "HeightRetrace"
	ChannelAmplitudeError ChannelLabel = "AmplitudeError"
)

// AllChannelLabels lists every recognized channel, in the original
// enumeration's order.
var AllChannelLabels = []ChannelLabel{
	ChannelHeight,
	ChannelHeightSensor,
	ChannelHeightTrace,
	ChannelHeightRetrace,
	ChannelAmplitudeError,
}
