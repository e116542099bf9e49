package logkey

// Common keys for structured log attributes so grepping logs stays sane.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"
	UserID  = "UserID"
	OrderID = "OrderID"
)
