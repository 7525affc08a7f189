package adyen

// ResponseCode is the acknowledgement returned by the modification API.
type ResponseCode string

const (
	CaptureReceived        ResponseCode = "[capture-received]"
	RefundReceived         ResponseCode = "[refund-received]"
	CancelReceived         ResponseCode = "[cancel-received]"
	CancelOrRefundReceived ResponseCode = "[cancelOrRefund-received]"
)

var responseNames = map[ResponseCode]string{
	CaptureReceived:        "CaptureReceived",
	RefundReceived:         "RefundReceived",
	CancelReceived:         "CancelReceived",
	CancelOrRefundReceived: "CancelOrRefundReceived",
}

// Name returns the symbolic name of a known code, or the raw value.
func (c ResponseCode) Name() string {
	if name, ok := responseNames[c]; ok {
		return name
	}
	return string(c)
}
