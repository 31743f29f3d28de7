package connectors

const (
	TopicConnStatus    = "conn.status"
	TopicDeviceState   = "device.state"
	TopicRawLineIn     = "raw.line.in"
	TopicDecodeFailure = "decode.failure"
)
